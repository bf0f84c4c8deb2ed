package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/gravsim/internal/sim"
)

type ExportBody struct {
	Mass     float64      `json:"mass"`
	Position [][3]float64 `json:"position"`
	Velocity [][3]float64 `json:"velocity"`
}

type ExportData struct {
	Run      RunMetadata  `json:"run"`
	Times    []float64    `json:"times"`
	Energies []float64    `json:"energies"`
	Bodies   []ExportBody `json:"bodies"`
}

// NewExportData arranges a run per body, each with its own position and
// velocity series aligned with Times.
func NewExportData(meta RunMetadata, result *sim.Result) ExportData {
	data := ExportData{
		Run:      meta,
		Times:    result.Times,
		Energies: result.Energies,
	}
	if len(result.States) == 0 {
		return data
	}

	data.Bodies = make([]ExportBody, result.States[0].Len())
	for i := range data.Bodies {
		data.Bodies[i].Mass = result.States[0].Body(i).Mass
		data.Bodies[i].Position = make([][3]float64, 0, len(result.States))
		data.Bodies[i].Velocity = make([][3]float64, 0, len(result.States))
	}
	for _, st := range result.States {
		for i, b := range st.Bodies() {
			data.Bodies[i].Position = append(data.Bodies[i].Position, b.Position)
			data.Bodies[i].Velocity = append(data.Bodies[i].Velocity, b.Velocity)
		}
	}
	return data
}

func ExportJSON(w io.Writer, meta RunMetadata, result *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(meta, result))
}
