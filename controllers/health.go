package controllers

import (
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
)

// NewHealthWebService exposes the liveness endpoint used by the Consul
// health check and container probes.
func NewHealthWebService() *restful.WebService {
	ws := new(restful.WebService)
	ws.Path("/healthz").Produces(restful.MIME_JSON)

	ws.Route(ws.GET("").To(healthHandler).
		Doc("Liveness check").
		Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
		Returns(http.StatusOK, "Service is up", nil))

	return ws
}

func healthHandler(_ *restful.Request, response *restful.Response) {
	_ = response.WriteHeaderAndJson(http.StatusOK, map[string]string{"status": "ok"}, restful.MIME_JSON)
}
