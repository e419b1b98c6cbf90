package export

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// BlocksToHTML converts block-editor JSON ({"blocks":[...]}) to HTML.
// Unknown block types are skipped.
func BlocksToHTML(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}

	var doc struct {
		Blocks []struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		} `json:"blocks"`
	}
	if err := json.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var out strings.Builder
	for _, block := range doc.Blocks {
		out.WriteString(renderBlock(block.Type, block.Data))
	}
	return out.String()
}

func renderBlock(blockType string, data json.RawMessage) string {
	switch blockType {
	case "paragraph":
		var d struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return ""
		}
		return fmt.Sprintf("<p>%s</p>\n", d.Text)
	case "header":
		var d struct {
			Text  string `json:"text"`
			Level int    `json:"level"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return ""
		}
		level := d.Level
		if level < 1 || level > 6 {
			level = 2
		}
		return fmt.Sprintf("<h%d>%s</h%d>\n", level, d.Text, level)
	case "list":
		return renderList(data)
	case "quote":
		var d struct {
			Text    string `json:"text"`
			Caption string `json:"caption"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return ""
		}
		if strings.TrimSpace(d.Caption) != "" {
			return fmt.Sprintf("<blockquote><p>%s</p><cite>%s</cite></blockquote>\n", d.Text, d.Caption)
		}
		return fmt.Sprintf("<blockquote><p>%s</p></blockquote>\n", d.Text)
	case "code":
		var d struct {
			Code string `json:"code"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return ""
		}
		return fmt.Sprintf("<pre><code>%s</code></pre>\n", html.EscapeString(d.Code))
	case "image":
		var d struct {
			File struct {
				URL string `json:"url"`
			} `json:"file"`
			URL     string `json:"url"`
			Caption string `json:"caption"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return ""
		}
		src := d.File.URL
		if src == "" {
			src = d.URL
		}
		if src == "" {
			return ""
		}
		img := fmt.Sprintf("<img src=%q alt=%q>", src, stripTags(d.Caption))
		if strings.TrimSpace(d.Caption) != "" {
			return fmt.Sprintf("<figure>%s<figcaption>%s</figcaption></figure>\n", img, d.Caption)
		}
		return img + "\n"
	case "delimiter":
		return "<hr>\n"
	case "table":
		return renderTable(data)
	case "raw":
		var d struct {
			HTML string `json:"html"`
		}
		if err := json.Unmarshal(data, &d); err != nil {
			return ""
		}
		return d.HTML + "\n"
	default:
		return ""
	}
}

// list items arrive either as plain strings or as {"content": "..."}
// objects depending on the editor tool version.
func renderList(data json.RawMessage) string {
	var d struct {
		Style string            `json:"style"`
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return ""
	}

	tag := "ul"
	if d.Style == "ordered" {
		tag = "ol"
	}

	var out strings.Builder
	fmt.Fprintf(&out, "<%s>\n", tag)
	for _, raw := range d.Items {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			var obj struct {
				Content string `json:"content"`
			}
			if err := json.Unmarshal(raw, &obj); err != nil {
				continue
			}
			text = obj.Content
		}
		fmt.Fprintf(&out, "<li>%s</li>\n", text)
	}
	fmt.Fprintf(&out, "</%s>\n", tag)
	return out.String()
}

func renderTable(data json.RawMessage) string {
	var d struct {
		WithHeadings bool       `json:"withHeadings"`
		Content      [][]string `json:"content"`
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return ""
	}
	if len(d.Content) == 0 {
		return ""
	}

	var out strings.Builder
	out.WriteString("<table>\n")
	for i, row := range d.Content {
		cell := "td"
		if i == 0 && d.WithHeadings {
			cell = "th"
		}
		out.WriteString("<tr>")
		for _, col := range row {
			fmt.Fprintf(&out, "<%s>%s</%s>", cell, col, cell)
		}
		out.WriteString("</tr>\n")
	}
	out.WriteString("</table>\n")
	return out.String()
}

func stripTags(s string) string {
	var out strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			out.WriteRune(r)
		}
	}
	return out.String()
}
