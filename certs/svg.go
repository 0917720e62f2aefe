package certs

import (
	"fmt"
	"html"
)

// ArtifactData is what gets embedded into the rendered certificate
type ArtifactData struct {
	Student   string
	Course    string
	Date      string
	ScoreText string // empty when the course is not score-gated
}

// RenderSVG produces the certificate image as an SVG document
func RenderSVG(d ArtifactData) string {
	student := html.EscapeString(d.Student)
	course := html.EscapeString(d.Course)
	date := html.EscapeString(d.Date)

	scoreLine := ""
	if d.ScoreText != "" {
		scoreLine = fmt.Sprintf(
			`<text x="50%%" y="560" text-anchor="middle" font-family="Arial" font-size="20" fill="#6b7280">%s</text>`,
			html.EscapeString(d.ScoreText))
	}

	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="1200" height="850" viewBox="0 0 1200 850">
  <defs>
    <linearGradient id="frame" x1="0%%" y1="0%%" x2="100%%" y2="100%%">
      <stop offset="0%%" stop-color="#1e40af"/>
      <stop offset="100%%" stop-color="#0ea5e9"/>
    </linearGradient>
  </defs>
  <rect width="100%%" height="100%%" fill="#f8fafc"/>
  <rect x="30" y="30" width="1140" height="790" rx="18" fill="white" stroke="url(#frame)" stroke-width="5"/>
  <rect x="50" y="50" width="1100" height="750" rx="12" fill="none" stroke="#f59e0b" stroke-width="2"/>
  <text x="50%%" y="180" text-anchor="middle" font-family="serif" font-size="52" font-weight="bold" fill="url(#frame)">CERTIFICATE OF COMPLETION</text>
  <line x1="250" y1="220" x2="950" y2="220" stroke="#f59e0b" stroke-width="3"/>
  <text x="50%%" y="300" text-anchor="middle" font-family="serif" font-size="24" fill="#374151">This is to certify that</text>
  <text x="50%%" y="380" text-anchor="middle" font-family="serif" font-size="44" font-weight="bold" fill="#1e40af">%s</text>
  <text x="50%%" y="450" text-anchor="middle" font-family="serif" font-size="22" fill="#374151">has successfully completed the course</text>
  <text x="50%%" y="520" text-anchor="middle" font-family="serif" font-size="34" font-weight="bold" fill="#1e40af">%s</text>
  %s
  <text x="50%%" y="640" text-anchor="middle" font-family="serif" font-size="20" fill="#374151">Awarded this %s</text>
  <circle cx="1000" cy="720" r="55" fill="none" stroke="url(#frame)" stroke-width="3"/>
  <text x="1000" y="725" text-anchor="middle" font-family="serif" font-size="12" font-weight="bold" fill="#1e40af">OFFICIAL SEAL</text>
  <line x1="180" y1="740" x2="420" y2="740" stroke="#6b7280" stroke-width="2"/>
  <text x="300" y="765" text-anchor="middle" font-family="Arial" font-size="14" fill="#6b7280">Director of Academic Affairs</text>
</svg>`, student, course, scoreLine, date)
}
