package capture

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed assets/*.svg
var assetFS embed.FS

// cardTemplate lays out the trophy card. The background is inserted as an
// absolutely positioned element behind all content instead of a CSS
// background, because not every rasterizer honors CSS backgrounds faithfully.
var cardTemplate = template.Must(template.New("card").Funcs(template.FuncMap{
	// Data URLs are generated locally from already-validated bytes; mark them
	// safe so html/template does not mangle them.
	"asURL": func(s string) template.URL { return template.URL(s) },
	"asset": assetSVG,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  html, body { margin: 0; padding: 0; background: transparent; }
  #trophy-card {
    position: relative;
    width: {{.Options.Width}}px;
    height: {{.Options.Height}}px;
    overflow: hidden;
    border-radius: 12px;
    background: #1f2430;
    font-family: Verdana, Geneva, sans-serif;
    color: #ffffff;
  }
  .card-background {
    position: absolute;
    left: {{.BackgroundPlacement.X}}px;
    top: {{.BackgroundPlacement.Y}}px;
    width: {{.BackgroundPlacement.Width}}px;
    height: {{.BackgroundPlacement.Height}}px;
    z-index: 0;
  }
  .content-overlay {
    position: relative;
    z-index: 1;
    width: 100%;
    height: 100%;
    background: rgba(15, 18, 28, 0.55);
    box-sizing: border-box;
    padding: 24px;
  }
  .top-row { display: flex; justify-content: space-between; align-items: center; }
  .user-container { display: flex; align-items: center; gap: 16px; }
  .avatar img { width: 72px; height: 72px; border-radius: 8px; display: block; }
  .username { font-size: 22px; font-weight: bold; letter-spacing: 1px; }
  .plus { width: 18px; height: 18px; opacity: 0.25; }
  .plus-active { opacity: 1; }
  .level { font-size: 18px; color: #98DB7C; }
  .trophy-row { display: flex; gap: 24px; margin-top: 28px; }
  .trophy-pair { display: flex; align-items: center; gap: 6px; font-size: 16px; }
  .trophy-pair svg { width: 20px; height: 20px; }
  .platinum { color: #64B9FC; }
  .gold { color: #FFC54B; }
  .silver { color: #D4E3D8; }
  .bronze { color: #F66C4C; }
  .total { color: #98DB7C; }
  .bottom-row { position: absolute; left: 24px; right: 24px; bottom: 20px; }
  .last-played { font-size: 13px; color: #c9d1e0; margin-bottom: 8px; }
  .logo-strip { display: flex; gap: 8px; }
  .logo-strip img { width: 36px; height: 36px; border-radius: 4px; }
</style>
</head>
<body>
<div id="trophy-card">
  {{if not .Background.Empty}}<img class="card-background" src="{{.Background.DataURL | asURL}}" alt="">{{end}}
  <div class="content-overlay">
    <div class="top-row">
      <div class="user-container">
        {{if not .Avatar.Empty}}<span class="avatar"><img src="{{.Avatar.DataURL | asURL}}" alt=""></span>{{end}}
        <span class="plus{{if .Snapshot.IsPlusMember}} plus-active{{end}}">{{asset "plus"}}</span>
        <span class="username">{{.Snapshot.OnlineID}}</span>
      </div>
      <span class="level">{{asset "level"}} Level {{.Snapshot.Level}}</span>
    </div>
    <div class="trophy-row">
      <span class="trophy-pair platinum">{{asset "platinum"}} {{.Snapshot.TrophyCounts.Platinum}}</span>
      <span class="trophy-pair gold">{{asset "gold"}} {{.Snapshot.TrophyCounts.Gold}}</span>
      <span class="trophy-pair silver">{{asset "silver"}} {{.Snapshot.TrophyCounts.Silver}}</span>
      <span class="trophy-pair bronze">{{asset "bronze"}} {{.Snapshot.TrophyCounts.Bronze}}</span>
      <span class="trophy-pair total">{{.Snapshot.TotalTrophies}} trophies</span>
    </div>
    <div class="bottom-row">
      <div class="last-played">Last game played: {{.Snapshot.LastPlayedTitle}}</div>
      <div class="logo-strip">
        {{range .Logos}}{{if not .Empty}}<img src="{{.DataURL | asURL}}" alt="">{{end}}{{end}}
      </div>
    </div>
  </div>
</div>
</body>
</html>`))

// assetSVG inlines one of the embedded icon assets.
func assetSVG(name string) template.HTML {
	data, err := assetFS.ReadFile("assets/" + name + ".svg")
	if err != nil {
		return ""
	}
	return template.HTML(data)
}

// HTML renders the composed card document into a standalone page a browser
// renderer can load without any network access.
func (d *Document) HTML() (string, error) {
	var buf bytes.Buffer
	if err := cardTemplate.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("failed to render card template: %w", err)
	}
	return buf.String(), nil
}
