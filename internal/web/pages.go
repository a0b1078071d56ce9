package web

import "html/template"

var pageTemplates = template.Must(template.New("pages").Parse(`
{{define "layout_head"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
{{end}}

{{define "layout_foot"}}</body>
</html>
{{end}}

{{define "home"}}{{template "layout_head" .}}
<main>
<h1>Property Search</h1>
<form id="search" action="/api/property" method="get">
<label for="address">Address</label>
<input id="address" name="address" type="text" placeholder="123 Main St, Springfield" required>
<input type="hidden" name="include_nearby" value="true">
<input type="hidden" name="radius_meters" value="2000">
<button type="submit">Search</button>
</form>
</main>
{{template "layout_foot" .}}{{end}}

{{define "login"}}{{template "layout_head" .}}
<main>
<h1>Sign in</h1>
<form id="login" method="post" action="/api/auth/login">
<label for="password">Access password</label>
<input id="password" name="password" type="password" autocomplete="current-password" required>
<input type="hidden" name="redirect" value="{{.Redirect}}">
<button type="submit">Continue</button>
</form>
</main>
{{template "layout_foot" .}}{{end}}

{{define "rate_limited"}}{{template "layout_head" .}}
<main>
<h1>Too many requests</h1>
<p>You have reached the request limit. Please wait a while before trying again.</p>
<p><a href="/">Back to search</a></p>
</main>
{{template "layout_foot" .}}{{end}}
`))

type pageData struct {
	Title    string
	Redirect string
}
