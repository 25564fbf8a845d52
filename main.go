package main

import "usercenter/commands"

func main() {
	commands.Execute()
}
