package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"

	"arxiv-similarity-search/internal/api/middleware"
	"arxiv-similarity-search/internal/models"
)

func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/api").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	ws.
		Route(ws.GET("/health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"system"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))

	ws.
		Route(ws.GET("/config").
			To(handler.Config).
			Doc("System configuration and local database status").
			Metadata(restfulspec.KeyOpenAPITags, []string{"system"}).
			Writes(ConfigResponse{}).
			Returns(200, "OK", ConfigResponse{}))

	ws.
		Route(ws.POST("/search").
			To(handler.Search).
			Doc("Search for papers similar to an abstract").
			Metadata(restfulspec.KeyOpenAPITags, []string{"search"}).
			Reads(models.SearchRequest{}).
			Writes(models.SearchResponse{}).
			Returns(200, "OK", models.SearchResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/summary").
			To(handler.Summarize).
			Doc("Generate a deep-dive summary for a paper from an earlier search").
			Metadata(restfulspec.KeyOpenAPITags, []string{"search"}).
			Reads(models.SummaryRequest{}).
			Writes(models.SummaryResponse{}).
			Returns(200, "OK", models.SummaryResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(404, "Not Found", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/session/{session_id}").
			To(handler.GetSession).
			Doc("Inspect a stored search session").
			Metadata(restfulspec.KeyOpenAPITags, []string{"search"}).
			Param(ws.PathParameter("session_id", "Session id returned by a search").DataType("string")).
			Writes(models.ResultSet{}).
			Returns(200, "OK", models.ResultSet{}).
			Returns(404, "Not Found", middleware.ErrorResponse{}))

	container.Add(ws)
}
