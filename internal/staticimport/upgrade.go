package staticimport

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"matholymp/internal/csvsource"
	"matholymp/internal/fileutil"
	"matholymp/internal/olympiad"
	"matholymp/internal/sitegen"
	"matholymp/pkg/utils/logger"
)

// Lists in files from before Extra Awards existed were joined with plain
// commas.
func convertCommaSeparated(s string) string {
	if s == "" {
		return s
	}
	return fileutil.CommaJoin(strings.Split(s, ","))
}

// Upgrade rewrites data/people.csv of the site rooted at topDir in the
// current format.
func Upgrade(ctx context.Context, cfg *sitegen.Config, topDir string) error {
	lock, err := fileutil.LockDir(topDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	path := csvsource.DataFiles(topDir, cfg.ShortNameURLPlural).People
	people, err := fileutil.ReadUTF8CSV(path)
	if err != nil {
		return err
	}
	numProblems, upgraded := 0, 0
	for _, p := range people {
		numProblems = maxProblems(p, numProblems)
		if _, ok := p[olympiad.ColExtraAwards]; !ok {
			p[olympiad.ColExtraAwards] = ""
			p[olympiad.ColOtherRoles] = convertCommaSeparated(p[olympiad.ColOtherRoles])
			p[olympiad.ColGuideFor] = convertCommaSeparated(p[olympiad.ColGuideFor])
			upgraded++
		}
	}
	if err := fileutil.WriteUTF8CSV(path, people, PeopleHeader(cfg, numProblems)); err != nil {
		return err
	}
	logger.Info(ctx, "people data upgraded", zap.Int("rows", len(people)), zap.Int("converted", upgraded))
	return nil
}
