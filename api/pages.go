package api

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/seenimoa/commodityavg/internal/query"
	"github.com/seenimoa/commodityavg/internal/report"
	"github.com/seenimoa/commodityavg/internal/view"
	"github.com/seenimoa/commodityavg/pkg/models"
	"github.com/seenimoa/commodityavg/pkg/utils"
)

// IndexPage is the data of the index template.
type IndexPage struct {
	Resources []models.ResourceInfo
	Intervals []models.Interval
	Params    query.ParamsView
	Today     string
	Loading   bool
	Error     *query.ErrorInfo
	Guidance  string
	Summary   []view.Line
	Chart     template.HTML
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	c := controllerFrom(r.Context())
	st, p := c.State(), c.Params()
	snap := query.Snap(st, p)

	page := IndexPage{
		Resources: models.Resources(),
		Intervals: models.AllowedIntervals(p.Resource),
		Params:    snap.Params,
		Today:     utils.TodayAt(s.now()),
		Loading:   st.Kind() == query.KindLoading,
		Error:     snap.Error,
		Guidance:  snap.Guidance,
		Summary:   view.Summarize(st),
	}
	if page.Summary != nil {
		page.Chart = template.HTML(report.PriceTrendSVG(view.Series(st), s.chartConfig()))
	}
	s.render(w, "index.html", page)
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	s.render(w, "diagram.html", nil)
}

// handleResourceForm changes the resource; the interval resets with it.
func (s *Server) handleResourceForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res := r.PostForm.Get("resource")
	if err := applyParams(controllerFrom(r.Context()), ParamsRequest{Resource: &res}); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleFetchForm applies the form and submits synchronously before
// redirecting back to the index page.
func (s *Server) handleFetchForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c := controllerFrom(r.Context())
	req := ParamsRequest{}
	if v, ok := formValue(r, "resource"); ok && v != "" {
		req.Resource = &v
	}
	if v, ok := formValue(r, "interval"); ok && v != "" {
		// A stale interval from a previous resource is ignored rather than rejected.
		res := c.Params().Resource
		if req.Resource != nil {
			res = models.Resource(*req.Resource)
		}
		if models.IntervalAllowed(res, models.Interval(v)) {
			req.Interval = &v
		}
	}
	if v, ok := formValue(r, "start_date"); ok {
		req.StartDate = &v
	}
	if v, ok := formValue(r, "end_date"); ok {
		req.EndDate = &v
	}
	if err := applyParams(c, req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c.Submit(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	points := view.Series(controllerFrom(r.Context()).State())
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(report.PriceTrendSVG(points, s.chartConfig())))
}

func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	points := view.Series(controllerFrom(r.Context()).State())
	png, err := report.PriceTrendPNG(points, s.cfg.Chart.Width, s.cfg.Chart.Height)
	if errors.Is(err, report.ErrNoChartData) {
		http.Error(w, "no chart data", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("png chart failed", zap.Error(err), zap.String("session", sessionFrom(r.Context())))
		http.Error(w, "chart rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func (s *Server) chartConfig() report.ChartConfig {
	return report.Sized(s.cfg.Chart.Width, s.cfg.Chart.Height)
}

// render buffers the page and writes it only when the template succeeded.
func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("template failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	_, _ = buf.WriteTo(w)
}

func formValue(r *http.Request, key string) (string, bool) {
	vs, ok := r.PostForm[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}
