package main

// General API documentation for swaggo. The generated document lives in
// internal/httpapi/docs and is served with -tags=swagger.
//
// @title           llamachat API
// @version         1.0
// @description     HTTP API for a single-model local LLM chat.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
