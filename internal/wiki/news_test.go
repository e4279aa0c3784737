package wiki

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

const mainPageHTML = `<div class="mw-parser-output">
<div id="mp-tfa"><p><b><a href="/wiki/Other">Other</a></b> is not news.</p></div>
<div id="mp-itn">
<h2>In the news<span class="mw-editsection">[edit]</span></h2>
<ul>
<li>The <b><a href="/wiki/Comet">comet</a></b> passes   Earth.<sup class="reference">[1]</sup></li>
<li>An election is held in <a href="/wiki/Somewhere">Somewhere</a>.<span class="citation">cite</span></li>
<li><span class="mw-editsection">edit</span></li>
</ul>
</div>
</div>`

func TestInTheNews(t *testing.T) {
	var query map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query = map[string]string{"action": q.Get("action"), "page": q.Get("page"), "prop": q.Get("prop")}

		var resp parseResponse
		resp.Parse.Title = "Main Page"
		resp.Parse.Text = mainPageHTML
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	items, err := c.InTheNews(context.Background(), "en")
	if err != nil {
		t.Fatalf("InTheNews failed: %v", err)
	}
	if query["action"] != "parse" || query["page"] != "Main_Page" || query["prop"] != "text" {
		t.Errorf("unexpected query: %v", query)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 news items, got %d: %+v", len(items), items)
	}
	if items[0].Title != "comet" || items[0].Extract != "The comet passes Earth." {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if items[1].Title != "" || items[1].Extract != "An election is held in Somewhere." {
		t.Errorf("unexpected second item: %+v", items[1])
	}
}

func TestInTheNewsMissingBox(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"parse": {"title": "Portada", "text": "<div><p>Bienvenidos</p></div>"}}`))
	})

	items, err := c.InTheNews(context.Background(), "es")
	if err != nil {
		t.Fatalf("InTheNews failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %+v", items)
	}
}

func TestInTheNewsHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := c.InTheNews(context.Background(), "en"); err == nil {
		t.Error("expected error for 502")
	}
}
