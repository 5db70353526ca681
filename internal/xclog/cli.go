package xclog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/davetashner/buildsignal/internal/redact"
	"github.com/davetashner/buildsignal/internal/signal"
	"github.com/davetashner/buildsignal/internal/testable"
)

// ErrParserNotFound is returned when the xclogparser binary is not on PATH.
var ErrParserNotFound = errors.New("xclogparser not found on PATH")

// MinXCLogParserVersion is the oldest xclogparser whose issues reporter
// emits the fields decoded here.
const MinXCLogParserVersion = "v0.2.28"

// CLIParserTimeout bounds a single xclogparser run.
const CLIParserTimeout = 2 * time.Minute

// CLIParser runs `xclogparser parse --reporter issues` and decodes its JSON.
type CLIParser struct {
	exec   testable.CommandExecutor
	binary string
}

// Compile-time interface check.
var _ Parser = (*CLIParser)(nil)

// NewCLIParser returns a CLIParser using exec to locate and run the tool.
func NewCLIParser(exec testable.CommandExecutor) *CLIParser {
	return &CLIParser{exec: exec}
}

// Name returns the backend name.
func (p *CLIParser) Name() string { return BackendXCLogParser }

// CheckVersion verifies the tool is installed and at least
// MinXCLogParserVersion.
func (p *CLIParser) CheckVersion(ctx context.Context) error {
	bin, err := p.exec.LookPath("xclogparser")
	if err != nil {
		return ErrParserNotFound
	}
	p.binary = bin

	out, err := p.run(ctx, "version")
	if err != nil {
		return err
	}
	v := "v" + strings.TrimPrefix(strings.TrimSpace(string(out)), "v")
	if !semver.IsValid(v) {
		return fmt.Errorf("xclogparser: unrecognized version %q", strings.TrimSpace(string(out)))
	}
	if semver.Compare(v, MinXCLogParserVersion) < 0 {
		return fmt.Errorf("xclogparser %s is older than required %s", v, MinXCLogParserVersion)
	}
	return nil
}

// issuesReport is the JSON written by xclogparser's issues reporter.
type issuesReport struct {
	Errors   []cliNotice `json:"errors"`
	Warnings []cliNotice `json:"warnings"`
}

type cliNotice struct {
	Type                 string `json:"type"`
	Title                string `json:"title"`
	Detail               string `json:"detail"`
	Severity             int    `json:"severity"`
	DocumentURL          string `json:"documentURL"`
	StartingLineNumber   int    `json:"startingLineNumber"`
	StartingColumnNumber int    `json:"startingColumnNumber"`
	EndingLineNumber     int    `json:"endingLineNumber"`
	EndingColumnNumber   int    `json:"endingColumnNumber"`
	ClangFlag            string `json:"clangFlag"`
}

// Parse runs xclogparser on path.
func (p *CLIParser) Parse(ctx context.Context, path string) (*signal.BuildLog, error) {
	if p.binary == "" {
		bin, err := p.exec.LookPath("xclogparser")
		if err != nil {
			return nil, ErrParserNotFound
		}
		p.binary = bin
	}

	out, err := p.run(ctx, "parse", "--file", path, "--reporter", "issues")
	if err != nil {
		return nil, err
	}
	return decodeIssues(path, out)
}

func decodeIssues(path string, data []byte) (*signal.BuildLog, error) {
	var rep issuesReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("decode xclogparser output for %s: %w", path, err)
	}

	log := &signal.BuildLog{Path: path, Status: signal.StatusUnknown}
	for _, group := range [][]cliNotice{rep.Errors, rep.Warnings} {
		for _, cn := range group {
			n := signal.Notice{
				Type:           signal.NoticeType(cn.Type),
				Title:          cn.Title,
				Detail:         cn.Detail,
				Severity:       signal.Severity(cn.Severity),
				DocumentURL:    cn.DocumentURL,
				StartingLine:   cn.StartingLineNumber,
				StartingColumn: cn.StartingColumnNumber,
				EndingLine:     cn.EndingLineNumber,
				EndingColumn:   cn.EndingColumnNumber,
				CategoryIdent:  cn.ClangFlag,
			}
			if n.Type == "" {
				n.Type = ClassifyNotice(false, n.Severity, "", cn.ClangFlag, n.Title, n.FilePath())
			}
			log.Notices = append(log.Notices, n)
		}
	}
	return log, nil
}

func (p *CLIParser) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, CLIParserTimeout)
	defer cancel()

	name := p.binary
	if name == "" {
		name = "xclogparser"
	}
	cmd := p.exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("xclogparser %s: %w: %s", strings.Join(args, " "), err, redact.String(strings.TrimSpace(stderr.String())))
	}
	return stdout.Bytes(), nil
}
