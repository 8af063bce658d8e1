package index

import (
	"log/slog"

	"github.com/starford/meshgraph/internal/metrics"
	"github.com/starford/meshgraph/internal/models"
	"github.com/starford/meshgraph/internal/parser"
	"github.com/starford/meshgraph/internal/storage"
)

// ParsedFile is one corpus file read and parsed ahead of loading.
type ParsedFile struct {
	Entry  storage.Entry
	Result *parser.Result
}

// Scan enumerates and parses every eligible file. Unreadable files are
// skipped with a warning; only enumeration failure is returned.
func Scan(fsys storage.Provider, logger *slog.Logger) ([]ParsedFile, error) {
	entries, err := fsys.Scan()
	if err != nil {
		return nil, err
	}

	out := make([]ParsedFile, 0, len(entries))
	for _, e := range entries {
		data, err := fsys.Read(e.Path)
		if err != nil {
			metrics.FileErrors.WithLabelValues(metrics.StageRead).Inc()
			logger.Warn("scan: read failed", slog.String("path", e.Path), slog.String("error", err.Error()))
			continue
		}
		out = append(out, ParsedFile{Entry: e, Result: parser.Parse(data)})
	}
	return out, nil
}

// Load replaces the graph contents with files. All pages are inserted
// before any edge so a target with a file never passes through a stub.
func (g *Graph) Load(files []ParsedFile) {
	g.Clear()

	for _, f := range files {
		g.AddPage(pageOf(f))
	}
	for _, f := range files {
		for _, l := range f.Result.Links {
			g.ensure(l.Target)
			g.AddLink(f.Entry.Name, l.Target, l.DisplayText)
		}
	}
}

// BuildFromDirectory scans fsys and loads the result into g. The graph is
// cleared only once enumeration succeeds; on error g is left as it was.
func (g *Graph) BuildFromDirectory(fsys storage.Provider, logger *slog.Logger) error {
	files, err := Scan(fsys, logger)
	if err != nil {
		return err
	}
	g.Load(files)
	logger.Debug("build: loaded",
		slog.Int("files", len(files)),
		slog.Int("pages", g.PageCount()),
		slog.Int("links", g.LinkCount()))
	return nil
}

func pageOf(f ParsedFile) models.Page {
	return models.Page{
		Name:       f.Entry.Name,
		FilePath:   f.Entry.Path,
		Metadata:   f.Result.Metadata,
		ModifiedAt: f.Entry.ModTime,
	}
}
