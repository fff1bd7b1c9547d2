package server

import (
	"clipsplit/internal/timeutil"
	"clipsplit/models"
	"html/template"
)

var templateFuncs = template.FuncMap{
	"clock": timeutil.FormatSeconds,
	"human": func(seconds float64) string { return timeutil.HumanDuration(int(seconds)) },
	"name":  func(a models.ClipArtifact) string { return a.Name() },
}

func parseTemplates() (*template.Template, error) {
	return template.New("index").Funcs(templateFuncs).Parse(indexTemplate)
}

const indexTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Video Splitter</title>
<style>
body { font-family: sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; }
.clip { border: 1px solid #ddd; border-radius: 6px; padding: 1rem; margin-bottom: 1rem; }
.clip video { width: 100%; max-height: 360px; background: #000; }
.success { color: #1a7f37; }
.failed, .error { color: #cf222e; }
</style>
</head>
<body>
<h1>Video Splitter</h1>
<p>Upload any video and split it into smaller clips based on your chosen duration.</p>

{{if .Error}}<p class="error" id="error">{{.Error}}</p>{{end}}

<form id="split-form" action="/split" method="post" enctype="multipart/form-data">
  <label>Video file
    <input type="file" name="video" accept="{{.Accept}}" required>
  </label>
  <label>Split duration (in minutes)
    <input type="number" name="minutes" min="1" step="1" value="{{.DefaultMinutes}}" required>
  </label>
  <button type="submit"{{if .Busy}} disabled{{end}}>Split Video</button>
</form>

{{with .Job}}
<section id="results">
  <p class="success" id="summary">Done! Generated {{len $.Clips}} clips.</p>
  <p class="meta">Source length {{human .Source.Duration}}, {{.SegmentSeconds}}s per clip, {{.Mode}} mode.</p>

  {{if $.Failed}}
  <div class="failed" id="failures">
    <p>{{len $.Failed}} clip(s) could not be extracted:</p>
    <ul>
    {{range $.Failed}}<li data-clip="{{name .}}">{{clock .Segment.Start}} to {{clock .Segment.End}}: {{.Error}}</li>
    {{end}}
    </ul>
  </div>
  {{end}}

  {{range $.Clips}}
  <div class="clip" data-clip="{{name .}}">
    <h3>{{clock .Segment.Start}} to {{clock .Segment.End}}</h3>
    <video controls preload="metadata" src="/clips/{{name .}}"></video>
    <p><a class="download" href="/download/{{name .}}" download="{{name .}}">Download {{name .}}</a></p>
  </div>
  {{end}}

  <form id="purge-form" action="/purge" method="post">
    <button type="submit">Delete all clips</button>
  </form>
</section>
{{end}}
</body>
</html>
`
