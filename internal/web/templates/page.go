// Package templates holds the lab's templ components. Markup lives in the
// .templ files; the _templ.go files are generated with `templ generate`.
package templates

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/dftlab/internal/core"
)

// PageData is everything the index page shows.
type PageData struct {
	Snapshot    core.Snapshot
	Prefix      string
	Precision   core.Precision
	Transforms  []string
	MaxFileSize int64
}

// ExportURL returns the download link for the current result.
func (d PageData) ExportURL() string {
	q := url.Values{}
	q.Set("prefix", d.Prefix)
	q.Set("real", strconv.Itoa(d.Precision.Real))
	q.Set("imag", strconv.Itoa(d.Precision.Imag))
	q.Set("n", strconv.Itoa(d.Snapshot.N))
	return "/api/export?" + q.Encode()
}

// ExportName is the file name the current result downloads as.
func (d PageData) ExportName() string {
	return core.FileName(d.Prefix, d.Snapshot.N)
}

func gridLabel(in *core.IngestResult) string {
	return fmt.Sprintf("%d x %d", in.Rows, in.Cols)
}

func rangeLabel(s core.Stats) string {
	return fmt.Sprintf("%g / %g", s.Min, s.Max)
}

func spreadLabel(s core.Stats) string {
	return fmt.Sprintf("%g / %g", s.Mean, s.StdDev)
}

func formatBytes(n int64) string {
	const mb = 1 << 20
	if n >= mb && n%mb == 0 {
		return strconv.FormatInt(n/mb, 10) + " MB"
	}
	return strconv.FormatInt(n, 10) + " bytes"
}

const pageCSS = `body{font-family:system-ui,sans-serif;margin:2rem;color:#222}
main{max-width:48rem}form label{display:block;margin:.5rem 0}
dl{display:grid;grid-template-columns:max-content auto;gap:.25rem 1rem}
dt{font-weight:600}textarea{width:100%;font-family:monospace}
.muted{color:#777}.alert-error{border:1px solid #c33;background:#fee;padding:.5rem 1rem}
.button{display:inline-block;padding:.3rem .8rem;border:1px solid #333;text-decoration:none;color:#222}`

// pageJS posts the form with fetch and refreshes the state section whenever
// the event stream reports a new snapshot.
const pageJS = `(function(){
var form=document.getElementById('ingest'),status=document.getElementById('status');
form.addEventListener('submit',function(e){
e.preventDefault();status.innerHTML='';
fetch(form.action,{method:'POST',body:new FormData(form),headers:{'HX-Request':'true'}})
.then(function(r){if(!r.ok){return r.text().then(function(t){status.innerHTML=t;});}});
});
function refresh(){fetch('/partials/state').then(function(r){return r.text();})
.then(function(t){document.getElementById('state').innerHTML=t;});}
if(window.EventSource){var es=new EventSource('/api/events');es.addEventListener('snapshot',refresh);}
})();`
