package templatex

import (
	"html/template"
	"reflect"
	"strings"
	"time"

	"github.com/iedon/zine-go/data"
)

// MarkdownConverter turns markdown source into HTML.
type MarkdownConverter interface {
	ToHTML(markdown string) (string, error)
}

// PreviewLookup resolves cached link previews.
type PreviewLookup interface {
	URLPreview(url string) (data.Preview, bool)
}

// Funcs builds the function map registered into every template.
// previews may be nil, in which case url_preview always yields nil.
func Funcs(md MarkdownConverter, previews PreviewLookup) template.FuncMap {
	return template.FuncMap{
		"featured": Featured,
		"markdown_to_html": func(args ...any) (template.HTML, error) {
			return MarkdownToHTML(md, args...)
		},
		"url_preview": func(url string) *data.Preview {
			if previews == nil {
				return nil
			}
			p, ok := previews.URLPreview(url)
			if !ok {
				return nil
			}
			return &p
		},
		"safeHTML": func(v any) template.HTML {
			switch value := v.(type) {
			case template.HTML:
				return value
			case string:
				return template.HTML(value)
			default:
				return ""
			}
		},
		"baseHref": func(base string) string {
			base = strings.TrimSpace(base)
			if base == "" || base == "/" {
				return "/"
			}
			trimmed := strings.Trim(base, "/")
			return "/" + trimmed + "/"
		},
		"dateFormat": func(layout string, t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(layout)
		},
	}
}

// Featured keeps the records whose featured field is boolean true, in
// order. Records may be string-keyed maps or structs with a Featured field.
// A missing or non-sequence argument yields an empty slice.
func Featured(args ...any) []any {
	out := make([]any, 0)
	if len(args) == 0 || args[0] == nil {
		return out
	}

	v, ok := indirect(reflect.ValueOf(args[0]))
	if !ok {
		return out
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return out
	}
	for i := 0; i < v.Len(); i++ {
		item := v.Index(i)
		if isFeatured(item) {
			out = append(out, item.Interface())
		}
	}
	return out
}

// MarkdownToHTML converts the first argument when it is textual. Anything
// else yields an empty string.
func MarkdownToHTML(md MarkdownConverter, args ...any) (template.HTML, error) {
	if md == nil || len(args) == 0 {
		return "", nil
	}
	var src string
	switch value := args[0].(type) {
	case string:
		src = value
	case template.HTML:
		src = string(value)
	case []byte:
		src = string(value)
	default:
		return "", nil
	}
	html, err := md.ToHTML(src)
	if err != nil {
		return "", err
	}
	return template.HTML(html), nil
}

func isFeatured(item reflect.Value) bool {
	v, ok := indirect(item)
	if !ok {
		return false
	}
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return false
		}
		field := v.MapIndex(reflect.ValueOf("featured").Convert(v.Type().Key()))
		return isTrue(field)
	case reflect.Struct:
		field := v.FieldByName("Featured")
		if !field.IsValid() || !field.CanInterface() {
			return false
		}
		return isTrue(field)
	}
	return false
}

func isTrue(v reflect.Value) bool {
	v, ok := indirect(v)
	return ok && v.Kind() == reflect.Bool && v.Bool()
}

func indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, v.IsValid()
}
