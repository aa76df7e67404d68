package openapi

import "github.com/getkin/kin-openapi/openapi3"

func ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

func typed(t, format, description string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:        &openapi3.Types{t},
		Format:      format,
		Description: description,
	}}
}

func object(required []string, props openapi3.Schemas) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Required:   required,
		Properties: props,
	}}
}

func arrayOf(items *openapi3.SchemaRef) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:  &openapi3.Types{"array"},
		Items: items,
	}}
}

func roleSchema() *openapi3.SchemaRef {
	s := openapi3.NewStringSchema()
	s.Enum = []any{"admin", "superadmin"}
	return &openapi3.SchemaRef{Value: s}
}

// componentSchemas returns the named schemas shared by every operation.
func componentSchemas() openapi3.Schemas {
	return openapi3.Schemas{
		"ErrorResponse": object([]string{"error"}, openapi3.Schemas{
			"error": object([]string{"code", "message"}, openapi3.Schemas{
				"code":    typed("integer", "int32", ""),
				"message": typed("string", "", ""),
				"context": typed("object", "", ""),
			}),
		}),
		"MessageResponse": object([]string{"success", "message"}, openapi3.Schemas{
			"success": typed("boolean", "", ""),
			"message": typed("string", "", ""),
			"id":      typed("string", "", ""),
		}),
		"Admin": object([]string{"id", "name", "email", "role", "createdAt"}, openapi3.Schemas{
			"id":        typed("string", "", ""),
			"name":      typed("string", "", ""),
			"email":     typed("string", "email", ""),
			"role":      roleSchema(),
			"lastLogin": typed("string", "date-time", ""),
			"createdAt": typed("string", "date-time", ""),
		}),
		"AuthResponse": object([]string{"admin", "token"}, openapi3.Schemas{
			"admin": ref("Admin"),
			"token": typed("string", "", "Bearer token for the Authorization header."),
		}),
		"LoginRequest": object([]string{"email", "password"}, openapi3.Schemas{
			"email":    typed("string", "email", ""),
			"password": typed("string", "password", ""),
		}),
		"RegisterRequest": object([]string{"name", "email", "password"}, openapi3.Schemas{
			"name":     typed("string", "", ""),
			"email":    typed("string", "email", ""),
			"password": typed("string", "password", "At least 8 characters."),
			"role":     roleSchema(),
		}),
		"Donation": object([]string{"id", "donorName", "email", "tabletName", "expiryDate", "unopened", "verified", "createdAt"}, openapi3.Schemas{
			"id":         typed("string", "", ""),
			"donorName":  typed("string", "", ""),
			"email":      typed("string", "email", ""),
			"tabletName": typed("string", "", ""),
			"expiryDate": typed("string", "date-time", ""),
			"unopened":   typed("boolean", "", ""),
			"verified":   typed("boolean", "", "Set only by an admin through the verify operation."),
			"createdAt":  typed("string", "date-time", "Assigned by the server."),
		}),
		"DonationCreate": object([]string{"donorName", "email", "tabletName", "expiryDate"}, openapi3.Schemas{
			"donorName":  typed("string", "", ""),
			"email":      typed("string", "email", ""),
			"tabletName": typed("string", "", ""),
			"expiryDate": typed("string", "", "YYYY-MM-DD or RFC 3339 timestamp."),
			"unopened":   typed("boolean", "", ""),
		}),
		"Health": object([]string{"status"}, openapi3.Schemas{
			"status":  typed("string", "", ""),
			"message": typed("string", "", ""),
		}),
	}
}
