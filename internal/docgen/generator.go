package docgen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"matholymp/internal/fileutil"
	"matholymp/internal/olympiad"
	"matholymp/internal/regdata"
	"matholymp/pkg/utils/logger"
)

// Dirs are the directories a Generator reads from and writes to.
type Dirs struct {
	Templates string
	Problems  string
	Data      string
	Out       string
}

// DefaultDirs returns the standard layout below topDir: templates/,
// papers/<year>/, data/ and out/.
func DefaultDirs(topDir string, cfg *Config) Dirs {
	return Dirs{
		Templates: filepath.Join(topDir, "templates"),
		Problems:  filepath.Join(topDir, "papers", cfg.Year),
		Data:      filepath.Join(topDir, "data"),
		Out:       filepath.Join(topDir, "out"),
	}
}

// Runner compiles a generated .tex file in dir.
type Runner func(ctx context.Context, dir, texFile string, env []string) error

// PDFLaTeX returns a Runner invoking pdflatex, or nil when pdflatex is not
// installed.
func PDFLaTeX() Runner {
	path, err := exec.LookPath("pdflatex")
	if err != nil {
		return nil
	}
	return func(ctx context.Context, dir, texFile string, env []string) error {
		cmd := exec.CommandContext(ctx, path, texFile)
		cmd.Dir = dir
		cmd.Env = env
		out, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("pdflatex %s: %w\n%s", texFile, err, out)
		}
		return nil
	}
}

// Generator produces documents for one event.
type Generator struct {
	cfg   *Config
	event *olympiad.Event
	dirs  Dirs
	run   Runner

	mu       sync.Mutex
	numPages map[string]int
}

// New returns a Generator. A nil runner only writes the .tex files.
func New(cfg *Config, event *olympiad.Event, dirs Dirs, run Runner) *Generator {
	return &Generator{
		cfg:      cfg,
		event:    event,
		dirs:     dirs,
		run:      run,
		numPages: make(map[string]int),
	}
}

func (g *Generator) substAndCompile(ctx context.Context, templateBase, outputBase string, fields Fields, raw ...string) error {
	text, err := fileutil.ReadText(filepath.Join(g.dirs.Templates, templateBase+".tex"))
	if err != nil {
		return err
	}
	texFile := outputBase + ".tex"
	if err := fileutil.WriteTextAtomic(filepath.Join(g.dirs.Out, texFile), Substitute(text, fields, raw...)); err != nil {
		return err
	}
	if g.run == nil {
		logger.Debug(ctx, "pdflatex not available, leaving LaTeX source", zap.String("file", texFile))
		return nil
	}
	env := append(os.Environ(), "TEXINPUTS="+strings.Join([]string{g.dirs.Problems, g.dirs.Templates, ""}, string(os.PathListSeparator)))
	if err := g.run(ctx, g.dirs.Out, texFile, env); err != nil {
		return err
	}
	for _, ext := range []string{".aux", ".log"} {
		if err := os.Remove(filepath.Join(g.dirs.Out, outputBase+ext)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	logger.Info(ctx, "document generated", zap.String("file", outputBase+".pdf"))
	return nil
}

var numericIDRE = regexp.MustCompile(`^[0-9]+$`)

// PersonByID finds a person by contestant code or person number.
func (g *Generator) PersonByID(id string) (*olympiad.PersonEvent, error) {
	if id == "" {
		return nil, fmt.Errorf("Empty person identifier")
	}
	if p, ok := g.event.ContestantMap[id]; ok {
		return p, nil
	}
	if numericIDRE.MatchString(id) {
		n, err := strconv.Atoi(id)
		if err == nil {
			if p, ok := g.event.PersonMap[n]; ok {
				return p, nil
			}
		}
	}
	return nil, fmt.Errorf("Person %s not found", id)
}

// ContestantByID is PersonByID restricted to contestants.
func (g *Generator) ContestantByID(id string) (*olympiad.PersonEvent, error) {
	p, err := g.PersonByID(id)
	if err != nil {
		return nil, err
	}
	if !p.IsContestant {
		return nil, fmt.Errorf("Person %d not a contestant", p.Person.ID)
	}
	return p, nil
}

func (g *Generator) countryFlag(c *olympiad.CountryEvent) (string, error) {
	if c == nil || c.FlagURL == "" {
		return "", nil
	}
	return regdata.FileURLToLocal(c.FlagURL, filepath.Join(g.dirs.Data, "flags"), "flag")
}

var pdfPageRE = regexp.MustCompile(`/Type\s*/Page\b`)

// pdfNumPages counts the page objects in a PDF file.
func pdfNumPages(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	n := len(pdfPageRE.FindAllIndex(data, -1))
	if n == 0 {
		return 0, fmt.Errorf("%s: no pages found", path)
	}
	return n, nil
}

func (g *Generator) paperPages(name string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n, ok := g.numPages[name]; ok {
		return n, nil
	}
	n, err := pdfNumPages(filepath.Join(g.dirs.Problems, name+".pdf"))
	if err != nil {
		return 0, err
	}
	g.numPages[name] = n
	return n, nil
}
