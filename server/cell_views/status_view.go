package cell_views

import (
	"fmt"
	"html/template"

	"gridplan/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// SweepStatus shows the sweep count, the last delta and whether the solve has finished.
type SweepStatus struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewSweepStatus(
	done <-chan struct{},
	frames <-chan Frame,
) (ss *SweepStatus) {
	ss = &SweepStatus{id: "sweepstatus"}
	ss.updates = channerics.Convert(done, frames, ss.onUpdate)
	return
}

func (ss *SweepStatus) Updates() <-chan []fastview.EleUpdate {
	return ss.updates
}

func (ss *SweepStatus) Parse(t *template.Template) (name string, err error) {
	name = ss.id
	_, err = t.Funcs(template.FuncMap{"state": solveState}).Parse(
		`{{ define "` + name + `" }}
		<div id="` + ss.id + `" style="font-family: monospace; padding: 10px;">
			sweep: <span id="` + ss.id + `-sweep">{{ .Sweep }}</span>
			delta: <span id="` + ss.id + `-delta">{{ printf "%.6g" .Delta }}</span>
			state: <span id="` + ss.id + `-state">{{ state . }}</span>
		</div>
		{{ end }}`)
	return
}

func (ss *SweepStatus) onUpdate(frame Frame) []fastview.EleUpdate {
	return []fastview.EleUpdate{
		{
			EleId: ss.id + "-sweep",
			Ops:   []fastview.Op{{Key: fastview.TextContent, Value: fmt.Sprintf("%d", frame.Sweep)}},
		},
		{
			EleId: ss.id + "-delta",
			Ops:   []fastview.Op{{Key: fastview.TextContent, Value: fmt.Sprintf("%.6g", frame.Delta)}},
		},
		{
			EleId: ss.id + "-state",
			Ops:   []fastview.Op{{Key: fastview.TextContent, Value: solveState(frame)}},
		},
	}
}

// solveState describes the frame's progress in one word.
func solveState(frame Frame) string {
	switch {
	case frame.Converged:
		return "converged"
	case frame.Done:
		return "stopped"
	}
	return "solving"
}
