package templates

import (
	"github.com/Conceptual-Machines/story-assistant/internal/models"
	"github.com/samber/lo"
)

// PageView is everything the form page renders
type PageView struct {
	Catalog *models.Catalog
	Params  models.GenerationParams
	Output  OutputView
}

// OutputView is the generated text, or the rendered error string
type OutputView struct {
	Text    string
	IsError bool
}

func assistanceLabels(catalog *models.Catalog) []string {
	return lo.Map(catalog.AssistanceTypes, func(a models.AssistanceType, _ int) string {
		return a.String()
	})
}

const pageStyle = `<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f6f5f2;color:#222}
main{max-width:1100px;margin:0 auto;padding:2rem}
.lead{color:#555}
.columns{display:grid;grid-template-columns:1fr 1fr;gap:2rem}
form label{display:block;margin-top:1rem;font-weight:600}
form select,form textarea,form input[type=range]{width:100%;margin-top:.25rem}
.examples{margin-top:.5rem;display:flex;flex-wrap:wrap;gap:.25rem;font-size:.85rem}
.example{border:1px solid #ccc;background:#fff;border-radius:4px;cursor:pointer}
.primary{margin-top:1.5rem;padding:.6rem 1.4rem;font-size:1rem}
.htmx-indicator{display:none;margin-left:1rem}
.htmx-request .htmx-indicator,.htmx-request.htmx-indicator{display:inline}
#output textarea{width:100%;min-height:28rem;font-family:Georgia,serif;font-size:1rem}
#output.error textarea{color:#a40000}
@media (max-width:800px){.columns{grid-template-columns:1fr}}
</style>`
