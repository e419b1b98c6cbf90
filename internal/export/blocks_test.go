package export

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBlocksToHTML(t *testing.T) {
	content := json.RawMessage(`{
		"time": 1724900000000,
		"blocks": [
			{"type": "header", "data": {"text": "Welcome", "level": 2}},
			{"type": "paragraph", "data": {"text": "First <b>paragraph</b>."}},
			{"type": "list", "data": {"style": "ordered", "items": ["one", "two"]}},
			{"type": "list", "data": {"style": "unordered", "items": [{"content": "alpha"}]}},
			{"type": "quote", "data": {"text": "Stay hungry", "caption": "Someone"}},
			{"type": "code", "data": {"code": "if x < 1 { return }"}},
			{"type": "image", "data": {"file": {"url": "/uploads/a.png"}, "caption": "A picture"}},
			{"type": "delimiter", "data": {}},
			{"type": "table", "data": {"withHeadings": true, "content": [["Name", "Age"], ["Ada", "36"]]}},
			{"type": "mystery", "data": {"whatever": true}}
		],
		"version": "2.28.0"
	}`)

	html := BlocksToHTML(content)

	wants := []string{
		"<h2>Welcome</h2>",
		"<p>First <b>paragraph</b>.</p>",
		"<ol>",
		"<li>one</li>",
		"<li>alpha</li>",
		"<cite>Someone</cite>",
		"<pre><code>if x &lt; 1 { return }</code></pre>",
		`<img src="/uploads/a.png" alt="A picture">`,
		"<figcaption>A picture</figcaption>",
		"<hr>",
		"<th>Name</th>",
		"<td>Ada</td>",
	}
	for _, want := range wants {
		if !strings.Contains(html, want) {
			t.Errorf("expected output to contain %q\ngot:\n%s", want, html)
		}
	}
	if strings.Contains(html, "mystery") {
		t.Error("unknown block type should be skipped")
	}
}

func TestBlocksToHTMLClampsHeaderLevel(t *testing.T) {
	content := json.RawMessage(`{"blocks":[{"type":"header","data":{"text":"Deep","level":9}}]}`)
	if html := BlocksToHTML(content); !strings.Contains(html, "<h2>Deep</h2>") {
		t.Errorf("expected level clamp to h2, got %s", html)
	}
}

func TestBlocksToHTMLEmptyAndInvalid(t *testing.T) {
	if out := BlocksToHTML(nil); out != "" {
		t.Errorf("expected empty output for nil content, got %q", out)
	}
	if out := BlocksToHTML(json.RawMessage(`{broken`)); out != "" {
		t.Errorf("expected empty output for invalid JSON, got %q", out)
	}
	if out := BlocksToHTML(json.RawMessage(`{"blocks":[]}`)); out != "" {
		t.Errorf("expected empty output for empty blocks, got %q", out)
	}
}

func TestRenderPageHTML(t *testing.T) {
	html, err := RenderPageHTML(PageData{
		Title:       "My Post",
		Author:      "Ada",
		ContentHTML: "<p>body</p>",
	})
	if err != nil {
		t.Fatalf("RenderPageHTML: %v", err)
	}
	if !strings.Contains(html, "<h1>My Post</h1>") {
		t.Error("expected title heading")
	}
	if !strings.Contains(html, "<p>body</p>") {
		t.Error("expected content HTML passed through")
	}
	if !strings.Contains(html, `lang="en"`) {
		t.Error("expected default locale")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Hello World", "Hello-World"},
		{"weird/../chars!", "weirdchars"},
		{"", "post"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
