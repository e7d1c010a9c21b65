package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the booking API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRoutes) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>aircnc-server Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "aircnc-server", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Error": { "type": "object", "properties": { "error": { "type": "boolean" }, "message": { "type": "string" } } },
      "InsertResult": { "type": "object", "properties": { "acknowledged": { "type": "boolean" }, "insertedId": { "type": "string" } } },
      "UpdateResult": { "type": "object", "properties": { "acknowledged": { "type": "boolean" }, "matchedCount": { "type": "integer" }, "modifiedCount": { "type": "integer" }, "upsertedCount": { "type": "integer" }, "upsertedId": { "type": "string", "nullable": true } } },
      "DeleteResult": { "type": "object", "properties": { "acknowledged": { "type": "boolean" }, "deletedCount": { "type": "integer" } } }
    }
  },
  "paths": {
    "/jwt": {
      "post": { "summary": "Issue an access token for the posted claims", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"idToken":{"type":"string"}},"required":["email"]}}}}, "responses": { "200": { "description": "token returned" }, "400": { "description": "invalid email" }, "401": { "description": "id token rejected" } } }
    },
    "/logout": {
      "post": { "summary": "Revoke the presented access token", "security": [{"bearer": []}], "responses": { "200": { "description": "revocation result" }, "401": { "description": "unauthorized" } } }
    },
    "/users/{email}": {
      "put": { "summary": "Create or replace a user", "security": [{"bearer": []}], "responses": { "200": { "description": "UpdateResult" }, "403": { "description": "email does not match token" } } },
      "get": { "summary": "Get a user or null", "security": [{"bearer": []}], "responses": { "200": { "description": "user document" }, "403": { "description": "email does not match token" } } }
    },
    "/rooms": {
      "get": { "summary": "List rooms", "parameters": [{"name":"limit","in":"query","schema":{"type":"integer","default":100,"maximum":500}},{"name":"offset","in":"query","schema":{"type":"integer"}}], "responses": { "200": { "description": "rooms" } } },
      "post": { "summary": "Create a room", "security": [{"bearer": []}], "responses": { "200": { "description": "InsertResult" } } }
    },
    "/rooms/{email}": {
      "get": { "summary": "List rooms hosted by email", "security": [{"bearer": []}], "responses": { "200": { "description": "rooms" }, "403": { "description": "email does not match token" } } }
    },
    "/room/{id}": {
      "get": { "summary": "Get a room or null", "responses": { "200": { "description": "room document" }, "400": { "description": "invalid id" } } }
    },
    "/rooms/status/{id}": {
      "patch": { "summary": "Set the booked flag of a room", "security": [{"bearer": []}], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"status":{"type":"boolean"}},"required":["status"]}}}}, "responses": { "200": { "description": "UpdateResult" } } }
    },
    "/rooms/{id}": {
      "delete": { "summary": "Delete a room", "security": [{"bearer": []}], "responses": { "200": { "description": "DeleteResult" } } }
    },
    "/rooms/images": {
      "post": { "summary": "Upload a room photo", "security": [{"bearer": []}], "requestBody": { "content": { "multipart/form-data": { "schema": {"type":"object","properties":{"image":{"type":"string","format":"binary"}}}}}}, "responses": { "200": { "description": "image key and URL" }, "503": { "description": "object storage not configured" } } }
    },
    "/bookings": {
      "get": { "summary": "List bookings of a guest", "parameters": [{"name":"email","in":"query","schema":{"type":"string"}}], "responses": { "200": { "description": "bookings, [] without email" }, "403": { "description": "email does not match token" } } },
      "post": { "summary": "Create a booking and reserve its room", "security": [{"bearer": []}], "responses": { "200": { "description": "InsertResult" }, "409": { "description": "room already booked" } } }
    },
    "/bookings/{id}": {
      "delete": { "summary": "Delete a booking and release its room", "security": [{"bearer": []}], "responses": { "200": { "description": "DeleteResult" } } }
    },
    "/manageBookings": {
      "get": { "summary": "List bookings of a host", "parameters": [{"name":"email","in":"query","schema":{"type":"string"}}], "responses": { "200": { "description": "bookings, [] without email" } } }
    },
    "/create-payment-intent": {
      "post": { "summary": "Create a card payment intent", "security": [{"bearer": []}], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"price":{"type":"number"}},"required":["price"]}}}}, "responses": { "200": { "description": "clientSecret" }, "400": { "description": "invalid price" }, "502": { "description": "processor failed" } } }
    }
  }
}`
