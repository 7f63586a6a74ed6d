// Package api defines the request and response types of the ContentGuard HTTP API.
//
// # API Overview
//
// ContentGuard provides a RESTful API for:
//   - Synchronous text, image and combined content moderation
//   - Asynchronous moderation tasks with status polling
//   - Health monitoring and metrics
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8000
//
// All moderation endpoints live under /api/v1.
package api
