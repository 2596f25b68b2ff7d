// Package api handles incoming HTTP requests, request validation and response
// formatting. It acts as an adapter between HTTP clients and the transcript
// service, translating HTTP concerns to business operations and service
// errors to status codes.
package api
