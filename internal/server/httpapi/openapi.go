package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	openapi3 "github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
	"github.com/gin-gonic/gin"

	"github.com/Rauks/Minecraft-RCON-Console/internal/consoleconfig"
	"github.com/Rauks/Minecraft-RCON-Console/internal/server/eventbus"
)

// serveOpenAPI returns an OpenAPI v3 JSON document generated from server types.
func (api *apiServer) serveOpenAPI(c *gin.Context) {
	baseURL := ""
	if r := c.Request; r.Host != "" {
		scheme := "http"
		if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}

	spec, err := BuildOpenAPISpec(baseURL)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fmt.Sprintf("failed to build openapi: %v", err)})
		return
	}
	c.JSON(http.StatusOK, spec)
}

// BuildOpenAPISpec constructs the OpenAPI spec. If baseURL is non-empty, it will be set as the server URL.
func BuildOpenAPISpec(baseURL string) (*openapi3.T, error) {
	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "Minecraft RCON",
			Version:     "v1",
			Description: "Relays console commands to a Minecraft server over RCON.",
		},
		Servers:    openapi3.Servers{},
		Paths:      openapi3.NewPaths(),
		Components: &openapi3.Components{Schemas: openapi3.Schemas{}},
	}
	if baseURL != "" {
		spec.Servers = append(spec.Servers, &openapi3.Server{URL: baseURL})
	}

	gen := openapi3gen.NewGenerator(
		openapi3gen.CreateComponentSchemas(openapi3gen.ExportComponentSchemasOptions{
			ExportComponentSchemas: true,
			ExportTopLevelSchema:   false,
		}),
	)

	schemaFor := func(v any) (*openapi3.SchemaRef, error) {
		ref, err := gen.NewSchemaRefForValue(v, spec.Components.Schemas)
		if err != nil {
			return nil, fmt.Errorf("openapi: schema for %T: %w", v, err)
		}
		return ref, nil
	}
	commandRespRef, err := schemaFor(&CommandResponse{})
	if err != nil {
		return nil, err
	}
	errorRef, err := schemaFor(&ErrorResponse{})
	if err != nil {
		return nil, err
	}
	eventRef, err := schemaFor(&eventbus.CommandEvent{})
	if err != nil {
		return nil, err
	}
	consoleRef, err := schemaFor(&consoleconfig.Config{})
	if err != nil {
		return nil, err
	}
	intentRef, err := schemaFor(&Intent{})
	if err != nil {
		return nil, err
	}
	frameRef, err := schemaFor(&Frame{})
	if err != nil {
		return nil, err
	}

	spec.Components.Schemas["Intent"] = intentRef
	spec.Components.Schemas["Frame"] = frameRef

	errorResponse := func(description string) *openapi3.ResponseRef {
		resp := openapi3.NewResponse().WithDescription(description)
		resp.Content = openapi3.NewContentWithJSONSchemaRef(errorRef)
		return &openapi3.ResponseRef{Value: resp}
	}

	// /healthz
	spec.AddOperation("/healthz", http.MethodGet, func() *openapi3.Operation {
		op := openapi3.NewOperation()
		op.Summary = "Health check"
		op.OperationID = "getHealth"
		op.Tags = []string{"health"}
		op.Responses = openapi3.NewResponses()
		{
			resp := openapi3.NewResponse().WithDescription("Service is healthy")
			schema := openapi3.NewObjectSchema()
			schema.Properties = map[string]*openapi3.SchemaRef{
				"status": openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
			}
			resp.Content = openapi3.NewContentWithJSONSchema(schema)
			op.Responses.Set("200", &openapi3.ResponseRef{Value: resp})
		}
		return op
	}())

	// /api/rcon
	spec.AddOperation("/api/rcon", http.MethodPost, func() *openapi3.Operation {
		op := openapi3.NewOperation()
		op.Summary = "Execute a console command"
		op.Description = "The raw request body is sent to the game server as one command."
		op.OperationID = "execCommand"
		op.Tags = []string{"rcon"}
		op.RequestBody = &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
			Required: true,
			Content:  openapi3.Content{"text/plain": {Schema: openapi3.NewSchemaRef("", openapi3.NewStringSchema())}},
		}}
		op.Responses = openapi3.NewResponses()
		{
			resp := openapi3.NewResponse().WithDescription("Raw server reply, formatting codes included")
			resp.Content = openapi3.NewContentWithJSONSchemaRef(commandRespRef)
			op.Responses.Set("200", &openapi3.ResponseRef{Value: resp})
		}
		op.Responses.Set("413", errorResponse("Command too large"))
		op.Responses.Set("500", errorResponse("Internal error"))
		op.Responses.Set("502", errorResponse("Game server unreachable"))
		op.Responses.Set("503", errorResponse("Protocol error or timeout"))
		op.Responses.Set("511", errorResponse("RCON login rejected"))
		return op
	}())

	// /api/rcon/events (SSE)
	spec.AddOperation("/api/rcon/events", http.MethodGet, func() *openapi3.Operation {
		op := openapi3.NewOperation()
		op.Summary = "Stream executed commands (SSE)"
		op.OperationID = "streamCommandEvents"
		op.Tags = []string{"events"}
		op.Responses = openapi3.NewResponses()
		{
			desc := "SSE stream of command events"
			resp := &openapi3.Response{Description: &desc, Content: openapi3.Content{"text/event-stream": {Schema: eventRef}}}
			op.Responses.Set("200", &openapi3.ResponseRef{Value: resp})
		}
		op.Responses.Set("503", errorResponse("Event streaming not available"))
		return op
	}())

	// /api/console/config
	spec.AddOperation("/api/console/config", http.MethodGet, func() *openapi3.Operation {
		op := openapi3.NewOperation()
		op.Summary = "Console tables"
		op.Description = "Status rules, formatting codes, shortcuts and the input placeholder."
		op.OperationID = "getConsoleConfig"
		op.Tags = []string{"console"}
		op.Responses = openapi3.NewResponses()
		{
			resp := openapi3.NewResponse().WithDescription("Console configuration")
			resp.Content = openapi3.NewContentWithJSONSchemaRef(consoleRef)
			op.Responses.Set("200", &openapi3.ResponseRef{Value: resp})
		}
		op.Responses.Set("503", errorResponse("Configuration not loaded"))
		return op
	}())

	// /ws/console
	spec.AddOperation("/ws/console", http.MethodGet, func() *openapi3.Operation {
		op := openapi3.NewOperation()
		op.Summary = "Console session (WebSocket)"
		op.Description = "Clients send Intent messages and receive Frame messages."
		op.OperationID = "consoleSession"
		op.Tags = []string{"console"}
		op.Responses = openapi3.NewResponses()
		{
			desc := "Switching protocols; frames follow"
			resp := &openapi3.Response{Description: &desc, Content: openapi3.NewContentWithJSONSchemaRef(frameRef)}
			op.Responses.Set("101", &openapi3.ResponseRef{Value: resp})
		}
		op.Responses.Set("503", errorResponse("Configuration not loaded"))
		return op
	}())

	return spec, nil
}
