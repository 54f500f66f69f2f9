package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/cliplin/cliplin/internal/contextstore"
)

// md renders stored markdown documents for the HTML preview endpoint.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

const previewPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body>
%s
</body>
</html>
`

// handleDocumentHTML renders one document as an HTML page. Non-markdown
// documents are wrapped in a <pre> block.
func (s *Server) handleDocumentHTML(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	id := chi.URLParam(r, "id")

	bundle, err := s.store.GetDocuments(r.Context(), name, contextstore.GetOptions{IDs: []string{id}})
	if err != nil {
		writeError(w, err)
		return
	}
	if len(bundle.IDs) == 0 {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("document %q not found", id)})
		return
	}

	content := bundle.Documents[0]

	var body bytes.Buffer
	if strings.HasSuffix(id, ".md") || bundle.Metadatas[0]["type"] == "adr" {
		if err := md.Convert([]byte(content), &body); err != nil {
			writeError(w, err)
			return
		}
	} else {
		body.WriteString("<pre>")
		body.WriteString(htmlEscape(content))
		body.WriteString("</pre>")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, previewPage, htmlEscape(id), body.String())
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func htmlEscape(s string) string {
	return htmlEscaper.Replace(s)
}
