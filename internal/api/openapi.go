package api

import (
	"github.com/ledgerline/docket/internal/config"
	"github.com/ledgerline/docket/pkg/openapi"
)

// buildSpec assembles the OpenAPI document for the service surface:
// intake sessions, the case archive, correspondence drafting, and the
// storage passthrough.
func buildSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.NewSpec(cfg.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(map[string]*openapi.Schema{
		"Error": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"error": {Type: "string"},
			},
			Required: []string{"error"},
		},
		"StepResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"step_name":    {Type: "string"},
				"status":       {Type: "string", Enum: []any{"COMPLETE", "HALTED", "ADK ERROR"}},
				"result_text":  {Type: "string"},
				"success_flag": {Type: "boolean"},
			},
			Required: []string{"step_name", "status", "result_text", "success_flag"},
		},
		"Report": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"status":     {Type: "string", Enum: []any{"approved", "denied", "unknown"}},
				"likelihood": {Type: "integer"},
				"pros":       {Type: "string"},
				"cons":       {Type: "string"},
			},
		},
		"PipelineResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"session_id": {Type: "string"},
				"state":      {Type: "string"},
				"outcome":    {Type: "string"},
				"steps":      {Type: "array", Items: openapi.SchemaRef("StepResult")},
				"report":     openapi.SchemaRef("Report"),
			},
		},
		"StageRequest": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"document_text": {Type: "string"},
			},
		},
		"StageResponse": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"stage":       {Type: "integer"},
				"status":      {Type: "string"},
				"output_text": {Type: "string"},
			},
			Required: []string{"stage", "status", "output_text"},
		},
		"IngestResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"session_id": {Type: "string"},
				"step":       openapi.SchemaRef("StepResult"),
				"files": {
					Type: "array",
					Items: &openapi.Schema{
						Type: "object",
						Properties: map[string]*openapi.Schema{
							"name":   {Type: "string"},
							"status": {Type: "string"},
							"error":  {Type: "string"},
						},
					},
				},
			},
		},
		"CaseRun": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":         {Type: "string", Format: "uuid"},
				"session_id": {Type: "string"},
				"state":      {Type: "string"},
				"outcome":    {Type: "string"},
				"status":     {Type: "string"},
				"likelihood": {Type: "integer"},
				"pros":       {Type: "string"},
				"cons":       {Type: "string"},
				"created_at": {Type: "string", Format: "date-time"},
				"steps":      {Type: "array", Items: openapi.SchemaRef("StepResult")},
			},
		},
		"Draft": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"subject": {Type: "string"},
				"body":    {Type: "string"},
			},
			Required: []string{"subject", "body"},
		},
	})

	spec.Components.AddResponses(map[string]*openapi.Response{
		"BadRequest":  openapi.ResponseJSON("Invalid request", "Error"),
		"NotFound":    openapi.ResponseJSON("Resource not found", "Error"),
		"Unavailable": openapi.ResponseJSON("Agent runtime unreachable", "Error"),
		"Internal":    openapi.ResponseJSON("Internal error", "Error"),
	})

	sessionParam := openapi.QueryParam("id", "string", "Intake session identifier", true)
	sessionParam.In = "path"

	spec.Paths["/intake/sessions/{id}/ingest"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:    "Ingest an evidence batch without advancing the pipeline",
			Tags:       []string{"intake"},
			Parameters: []*openapi.Parameter{sessionParam},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Ingest recorded", "IngestResult"),
				400: openapi.ResponseRef("BadRequest"),
				500: openapi.ResponseRef("Internal"),
			},
		},
	}

	spec.Paths["/intake/sessions/{id}/stages/{stage}"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary: "Run a single pipeline stage",
			Tags:    []string{"intake"},
			Parameters: []*openapi.Parameter{
				sessionParam,
				openapi.QueryParam("stage", "integer", "Stage number (1-4)", true),
			},
			RequestBody: openapi.RequestBodyJSON("StageRequest", false),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Stage output", "StageResponse"),
				400: openapi.ResponseRef("BadRequest"),
				503: openapi.ResponseRef("Unavailable"),
				500: openapi.ResponseRef("Internal"),
			},
		},
	}

	spec.Paths["/intake/sessions/{id}/run"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Run the full pipeline over one evidence batch",
			Tags:        []string{"intake"},
			Parameters:  []*openapi.Parameter{sessionParam},
			RequestBody: openapi.RequestBodyJSON("StageRequest", false),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Ordered step sequence", "PipelineResult"),
				400: openapi.ResponseRef("BadRequest"),
				503: openapi.ResponseRef("Unavailable"),
				500: openapi.ResponseRef("Internal"),
			},
		},
	}

	spec.Paths["/intake/sessions/{id}/results"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Last recorded step sequence for a session",
			Tags:       []string{"intake"},
			Parameters: []*openapi.Parameter{sessionParam},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Step sequence", "PipelineResult"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/intake/sessions/{id}"] = &openapi.PathItem{
		Delete: &openapi.Operation{
			Summary:    "Reset a session, including the runtime session",
			Tags:       []string{"intake"},
			Parameters: []*openapi.Parameter{sessionParam},
			Responses: map[int]*openapi.Response{
				204: {Description: "Session reset"},
				503: openapi.ResponseRef("Unavailable"),
			},
		},
	}

	spec.Paths["/cases"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List archived case runs",
			Tags:    []string{"cases"},
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("page", "integer", "Page number", false),
				openapi.QueryParam("page_size", "integer", "Page size", false),
				openapi.QueryParam("search", "string", "Search by session or outcome", false),
				openapi.QueryParam("outcome", "string", "Filter by outcome", false),
			},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paged case runs", "CaseRun"),
				500: openapi.ResponseRef("Internal"),
			},
		},
	}

	spec.Paths["/cases/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find an archived case run with its steps",
			Tags:       []string{"cases"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Case run id")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Case run", "CaseRun"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete an archived case run",
			Tags:       []string{"cases"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Case run id")},
			Responses: map[int]*openapi.Response{
				204: {Description: "Case run deleted"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/cases/{id}/draft"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:    "Draft client correspondence for an archived run",
			Tags:       []string{"comms"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Case run id")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Correspondence draft", "Draft"),
				404: openapi.ResponseRef("NotFound"),
				502: openapi.ResponseRef("Internal"),
			},
		},
	}

	return spec
}
