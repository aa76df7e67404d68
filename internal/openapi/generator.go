// Package openapi builds the OpenAPI 3.1 description of the HTTP API.
package openapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Options tunes the generated document.
type Options struct {
	BaseURL string
	Version string
	// ListRequiresAuth marks GET /api/donations as bearer-protected.
	ListRequiresAuth bool
}

// operation describes one route for the generator.
type operation struct {
	method      string
	path        string
	tag         string
	id          string
	summary     string
	auth        bool
	requestBody string
	status      string
	description string
	response    *openapi3.SchemaRef
	errors      []string
}

var errorDescriptions = map[string]string{
	"400": "Bad request",
	"401": "Unauthorized",
	"403": "Forbidden",
	"404": "Not found",
	"413": "Request body too large",
	"429": "Too many requests",
	"500": "Internal server error",
	"503": "Service unavailable",
}

func operations(opts Options) []operation {
	return []operation{
		{method: http.MethodGet, path: "/health", tag: "system", id: "health",
			summary: "Liveness check", status: "200", description: "Server is running",
			response: ref("Health")},
		{method: http.MethodGet, path: "/readyz", tag: "system", id: "readiness",
			summary: "Readiness check (pings the database)", status: "200", description: "Ready",
			response: ref("Health"), errors: []string{"503"}},

		{method: http.MethodPost, path: "/api/admin/register", tag: "admin", id: "registerAdmin",
			summary: "Create an admin account (superadmin only)", auth: true, requestBody: "RegisterRequest",
			status: "201", description: "Admin created", response: ref("AuthResponse"),
			errors: []string{"400", "401", "403", "413", "429", "500"}},
		{method: http.MethodPost, path: "/api/admin/login", tag: "admin", id: "login",
			summary: "Exchange email and password for a bearer token", requestBody: "LoginRequest",
			status: "200", description: "Logged in", response: ref("AuthResponse"),
			errors: []string{"400", "413", "429", "500"}},
		{method: http.MethodGet, path: "/api/admin/me", tag: "admin", id: "getProfile",
			summary: "Current admin profile", auth: true,
			status: "200", description: "Admin profile", response: ref("Admin"),
			errors: []string{"401", "500"}},
		{method: http.MethodGet, path: "/api/admin/verify", tag: "admin", id: "verifySession",
			summary: "Check that a bearer token is still valid", auth: true,
			status: "200", description: "Token is valid",
			response: object([]string{"admin"}, openapi3.Schemas{"admin": ref("Admin")}),
			errors:   []string{"401", "500"}},
		{method: http.MethodPost, path: "/api/admin/logout", tag: "admin", id: "logout",
			summary: "End the session (clients discard the token)", auth: true,
			status: "200", description: "Logged out", response: ref("MessageResponse"),
			errors: []string{"401"}},
		{method: http.MethodGet, path: "/api/admin/admins", tag: "admin", id: "listAdmins",
			summary: "List every admin (superadmin only)", auth: true,
			status: "200", description: "Admins", response: arrayOf(ref("Admin")),
			errors: []string{"401", "403", "500"}},

		{method: http.MethodPost, path: "/api/donations", tag: "donations", id: "createDonation",
			summary: "Submit a tablet donation", requestBody: "DonationCreate",
			status: "201", description: "Donation recorded", response: ref("Donation"),
			errors: []string{"400", "413", "429", "500"}},
		{method: http.MethodGet, path: "/api/donations", tag: "donations", id: "listDonations",
			summary: "List donations, newest first", auth: opts.ListRequiresAuth,
			status: "200", description: "Donations", response: arrayOf(ref("Donation")),
			errors: []string{"401", "403", "500"}},
		{method: http.MethodPatch, path: "/api/donations/{id}/verify", tag: "donations", id: "verifyDonation",
			summary: "Mark a donation verified (idempotent)", auth: true,
			status: "200", description: "Verified donation", response: ref("Donation"),
			errors: []string{"401", "403", "404", "500"}},
		{method: http.MethodDelete, path: "/api/donations/{id}", tag: "donations", id: "deleteDonation",
			summary: "Delete a donation", auth: true,
			status: "200", description: "Donation deleted", response: ref("MessageResponse"),
			errors: []string{"401", "403", "404", "500"}},
	}
}

// Generate returns the OpenAPI document for the API.
func Generate(opts Options) *openapi3.T {
	version := opts.Version
	if version == "" {
		version = "1.0.0"
	}

	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "CareCycle API",
			Description: "Tablet donation tracking: public submissions, admin verification.",
			Version:     version,
		},
	}
	if opts.BaseURL != "" {
		doc.Servers = openapi3.Servers{{URL: opts.BaseURL}}
	}

	components := openapi3.NewComponents()
	components.Schemas = componentSchemas()
	components.SecuritySchemes = openapi3.SecuritySchemes{
		"bearerAuth": &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type:         "http",
				Scheme:       "bearer",
				BearerFormat: "JWT",
			},
		},
	}
	doc.Components = &components
	doc.Paths = openapi3.NewPaths()

	tags := map[string]bool{}
	for _, op := range operations(opts) {
		tags[op.tag] = true
		addOperation(doc, op)
	}

	names := make([]string, 0, len(tags))
	for t := range tags {
		names = append(names, t)
	}
	sort.Strings(names)
	for _, t := range names {
		doc.Tags = append(doc.Tags, &openapi3.Tag{Name: t})
	}
	return doc
}

func addOperation(doc *openapi3.T, op operation) {
	o := &openapi3.Operation{
		Tags:        []string{op.tag},
		Summary:     op.summary,
		OperationID: op.id,
		Responses:   newResponses(op.status, op.description, op.response, op.errors),
	}
	if op.auth {
		o.Security = &openapi3.SecurityRequirements{{"bearerAuth": {}}}
	}
	if op.requestBody != "" {
		o.RequestBody = &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{
				Required: true,
				Content:  openapi3.NewContentWithJSONSchemaRef(ref(op.requestBody)),
			},
		}
	}

	item := doc.Paths.Value(op.path)
	if item == nil {
		item = &openapi3.PathItem{}
		doc.Paths.Set(op.path, item)
	}
	if strings.Contains(op.path, "{id}") && len(item.Parameters) == 0 {
		item.Parameters = openapi3.Parameters{
			&openapi3.ParameterRef{
				Value: openapi3.NewPathParameter("id").
					WithDescription("Donation identifier.").
					WithSchema(openapi3.NewStringSchema()),
			},
		}
	}
	item.SetOperation(op.method, o)
}


// newResponses builds a Responses map with a success response and the
// listed error responses.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef, errorCodes []string) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	errorRef := ref("ErrorResponse")
	for _, code := range errorCodes {
		desc := errorDescriptions[code]
		responses.Set(code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}
	return responses
}
