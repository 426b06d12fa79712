// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/OCAP2/artillery/pkg/core"
)

// MatchExport is the root JSON structure
type MatchExport struct {
	ExtensionVersion string           `json:"extensionVersion"`
	MatchName        string           `json:"matchName"`
	Tag              string           `json:"tag"`
	StartTime        time.Time        `json:"startTime"`
	TickSeconds      float64          `json:"tickSeconds"`
	EndTick          uint             `json:"endTick"`
	Wind             int8             `json:"wind"`
	Rules            core.Rules       `json:"rules"`
	Tanks            []TankJSON       `json:"tanks"`
	Projectiles      []ProjectileJSON `json:"projectiles"`
	Events           [][]any          `json:"events"`
}

// TankJSON is one tank's timeline.
// Each state is [tick, [x, y], health, barrelAngle, alive].
type TankJSON struct {
	Index        int     `json:"index"`
	BarrelLength float64 `json:"barrelLength"`
	States       [][]any `json:"states"`
}

// ProjectileJSON is one projectile's flight.
// Path holds [x, y] per recorded tick starting at FirstTick.
type ProjectileJSON struct {
	Index     int         `json:"index"`
	FirstTick uint        `json:"firstTick"`
	Path      [][]float64 `json:"path"`
}

// exportFileName builds "<match>_<start>.json[.gz]" with path-hostile characters replaced.
func exportFileName(match *core.Match, compress bool) string {
	name := strings.NewReplacer(" ", "_", ":", "_", "/", "_", "\\", "_").Replace(match.Name)
	if name == "" {
		name = "match"
	}
	ext := ".json"
	if compress {
		ext = ".json.gz"
	}
	return fmt.Sprintf("%s_%s%s", name, match.StartTime.Format("20060102_150405"), ext)
}

// exportJSON writes the match data to a (optionally gzipped) JSON file
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	if err := os.MkdirAll(b.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(b.cfg.OutputDir, exportFileName(b.match, b.cfg.CompressOutput))

	if err := writeExport(outputPath, export, b.cfg.CompressOutput); err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() MatchExport {
	export := MatchExport{
		ExtensionVersion: b.match.ExtensionVersion,
		MatchName:        b.match.Name,
		Tag:              b.match.Tag,
		StartTime:        b.match.StartTime,
		TickSeconds:      b.match.TickSeconds,
		EndTick:          b.endTick,
		Wind:             b.match.Wind,
		Rules:            b.match.Rules,
		Tanks:            make([]TankJSON, 0, len(b.tanks)),
		Projectiles:      make([]ProjectileJSON, 0, len(b.projectiles)),
		Events:           make([][]any, 0, len(b.shotEvents)+len(b.hitEvents)+len(b.killEvents)),
	}

	for _, idx := range sortedKeys(b.tanks) {
		record := b.tanks[idx]
		tank := TankJSON{Index: idx, States: make([][]any, 0, len(record.States))}
		if len(record.States) > 0 {
			tank.BarrelLength = record.States[0].BarrelLength
		}
		for _, s := range record.States {
			tank.States = append(tank.States, []any{
				s.Tick,
				[]float64{s.Position.X, s.Position.Y},
				s.Health,
				s.BarrelAngle,
				s.Alive,
			})
		}
		export.Tanks = append(export.Tanks, tank)
	}

	for _, idx := range sortedKeys(b.projectiles) {
		record := b.projectiles[idx]
		proj := ProjectileJSON{Index: idx, Path: make([][]float64, 0, len(record.States))}
		if len(record.States) > 0 {
			proj.FirstTick = record.States[0].Tick
		}
		for _, s := range record.States {
			proj.Path = append(proj.Path, []float64{s.Position.X, s.Position.Y})
		}
		export.Projectiles = append(export.Projectiles, proj)
	}

	// Format: [tick, "shot", tankIndex, power, [vx, vy]]
	for _, e := range b.shotEvents {
		export.Events = append(export.Events, []any{
			e.Tick, "shot", e.TankIndex, e.Power,
			[]float64{e.Projectile.Velocity.X, e.Projectile.Velocity.Y},
		})
	}
	// Format: [tick, "hit", tankIndex, projectileIndex, healthBefore, healthAfter, distance]
	for _, e := range b.hitEvents {
		export.Events = append(export.Events, []any{
			e.Tick, "hit", e.TankIndex, e.ProjectileIndex, e.HealthBefore, e.HealthAfter, e.Distance,
		})
	}
	// Format: [tick, "killed", tankIndex]
	for _, e := range b.killEvents {
		export.Events = append(export.Events, []any{e.Tick, "killed", e.TankIndex})
	}

	return export
}

func writeExport(path string, data MatchExport, compress bool) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	var w io.Writer = f
	if compress {
		gz := gzip.NewWriter(f)
		defer func() {
			if cerr := gz.Close(); err == nil && cerr != nil {
				err = fmt.Errorf("failed to finish gzip stream: %w", cerr)
			}
		}()
		w = gz
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}
