package web

import "embed"

// TemplatesFS embeds the page template and its HTMX partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the stylesheet and the page script.
//
//go:embed static/*
var StaticFS embed.FS
