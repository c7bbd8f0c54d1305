package paynet

import (
	"html/template"
	"net/url"
	"sort"
	"strings"
)

var autoSubmitTmpl = template.Must(template.New("autosubmit").Parse(`<!DOCTYPE html>
<html>
<body onload="document.forms[0].submit()">
<form method="post" action="{{.Action}}">
{{- range .Fields}}
<input type="hidden" name="{{.Name}}" value="{{.Value}}"/>
{{- end}}
<noscript><input type="submit" value="Continue"/></noscript>
</form>
</body>
</html>
`))

type formField struct {
	Name  string
	Value string
}

// AutoSubmitForm renders a self-submitting HTML document that posts the
// given fields to the gateway. This is the browser-redirect delivery mode
// for storefronts that can only emit an HTML body instead of a Location
// header.
func AutoSubmitForm(action string, fields url.Values) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	data := struct {
		Action string
		Fields []formField
	}{Action: action}
	for _, name := range names {
		data.Fields = append(data.Fields, formField{Name: name, Value: fields.Get(name)})
	}

	var b strings.Builder
	// the template cannot fail on a strings.Builder
	_ = autoSubmitTmpl.Execute(&b, data)
	return b.String()
}
