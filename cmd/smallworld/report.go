package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/meigma/smallworld"
)

// report summarizes a classified archive for --report.
type report struct {
	Input       string       `yaml:"input"`
	Size        int          `yaml:"size"`
	Files       []fileReport `yaml:"files"`
	Passthrough []string     `yaml:"passthrough,omitempty"`
}

type fileReport struct {
	Role     string          `yaml:"role"`
	Regions  string          `yaml:"regions"`
	Conflict bool            `yaml:"conflict"`
	Versions []versionReport `yaml:"versions"`
}

type versionReport struct {
	Digest  string   `yaml:"digest"`
	Size    int      `yaml:"size"`
	Regions string   `yaml:"regions"`
	Paths   []string `yaml:"paths"`
}

func newReport(input string, size int, cls *smallworld.Classification) *report {
	r := &report{
		Input:       input,
		Size:        size,
		Files:       make([]fileReport, 0, len(cls.Groups)),
		Passthrough: cls.Passthrough,
	}
	for _, g := range cls.Groups {
		f := fileReport{
			Role:     g.Role.String(),
			Regions:  g.Regions().String(),
			Conflict: g.Conflicting(),
		}
		for _, c := range g.Candidates {
			f.Versions = append(f.Versions, versionReport{
				Digest:  c.Digest.String(),
				Size:    len(c.Data),
				Regions: c.Regions.String(),
				Paths:   c.Paths,
			})
		}
		r.Files = append(r.Files, f)
	}
	return r
}

func (r *report) write(w io.Writer, format string) error {
	if format == reportYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}
	return r.writeText(w)
}

func (r *report) writeText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", r.Input, humanize.Bytes(uint64(r.Size))) //nolint:gosec // size is a slice length
	if len(r.Files) == 0 {
		b.WriteString("  no regional files\n")
	}
	for _, f := range r.Files {
		status := "ok"
		if f.Conflict {
			status = fmt.Sprintf("CONFLICT, %d versions", len(f.Versions))
		}
		fmt.Fprintf(&b, "  %-20s %-12s %s\n", f.Role, f.Regions, status)
		if !f.Conflict {
			continue
		}
		for _, v := range f.Versions {
			fmt.Fprintf(&b, "    %s  %-8s %s\n", shortDigest(v.Digest), humanize.Bytes(uint64(v.Size)), v.Regions) //nolint:gosec // size is a slice length
		}
	}
	fmt.Fprintf(&b, "  %d other file(s) kept unchanged\n", len(r.Passthrough))
	_, err := io.WriteString(w, b.String())
	return err
}

func shortDigest(d string) string {
	algo, enc, ok := strings.Cut(d, ":")
	if !ok || len(enc) <= 12 {
		return d
	}
	return algo + ":" + enc[:12]
}
