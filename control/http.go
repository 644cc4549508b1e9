package control

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/golang/glog"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/peragwin/glslive/midi"
)

// maximum accepted request body
const maxBody = 1 << 20

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// Handler serves the GraphQL endpoints, the MIDI websocket and the spectrum
// plot. MIDI received over the websocket is decoded with midiCfg.
func (s *Surface) Handler(midiCfg midi.DecoderConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/graphql", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		glog.V(2).Info(query)
		s.respond(w, query, nil)
	})

	mux.HandleFunc("/api/v2/graphql", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var req graphqlRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		glog.V(2).Info(req.Query)
		s.respond(w, req.Query, req.Variables)
	})

	if s.src.Table != nil {
		mux.Handle("/api/v1/midi", midi.WebsocketHandler(s.src.Table, midiCfg))
	}
	if s.src.Spectrum != nil {
		mux.HandleFunc("/spectrum.png", s.spectrumPlot)
	}
	return mux
}

func (s *Surface) respond(w http.ResponseWriter, query string, vars map[string]interface{}) {
	res := s.Query(query, vars)
	for _, err := range res.Errors {
		glog.Warningf("control: graphql: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		glog.Warningf("control: %v", err)
	}
}

func xys(data []float64) plotter.XYs {
	pts := make(plotter.XYs, len(data))
	for i := range pts {
		pts[i].X = float64(i)
		pts[i].Y = data[i]
	}
	return pts
}

// spectrumPlot renders the current raw and smoothed spectra as a PNG.
func (s *Surface) spectrumPlot(w http.ResponseWriter, r *http.Request) {
	p := plot.New()
	p.Title.Text = "spectrum"
	p.X.Label.Text = "bin"
	p.Y.Label.Text = "magnitude"

	if err := plotutil.AddLines(p,
		"raw", xys(snapshot(s.src.Spectrum.Raw)),
		"smoothed", xys(snapshot(s.src.Spectrum.Smoothed)),
	); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if _, err := wt.WriteTo(w); err != nil {
		glog.Warningf("control: spectrum plot: %v", err)
	}
}
