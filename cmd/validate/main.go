package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/novel-engine/internal/config"
	"github.com/jwebster45206/novel-engine/internal/logger"
	"github.com/jwebster45206/novel-engine/pkg/playback"
	"github.com/jwebster45206/novel-engine/pkg/present"
	"github.com/jwebster45206/novel-engine/pkg/script"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	play := fs.Bool("play", false, "print every frame of the script as JSON lines after validating")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: validate [-play] <script.json|script.yaml>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 1
	}

	filename := fs.Arg(0)
	validator := &ScriptValidator{out: stdout}
	s, err := validator.validateFile(filename)
	if err != nil {
		fmt.Fprintf(stderr, "Validation failed: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "Script file is valid!")

	if *play {
		if err := playScript(s, stdout, stderr); err != nil {
			fmt.Fprintf(stderr, "Playback failed: %v\n", err)
			return 1
		}
	}
	return 0
}

// playScript runs the script from start to end with the configured
// pagination and writes each frame to w.
func playScript(s *script.Script, w, logOut io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg, logOut)

	c := playback.NewController(s, cfg.PaginateOptions(), log)
	n, err := present.Play(c, present.NewJSONPresenter(w), log)
	if err != nil {
		return err
	}
	log.Info("Playback finished", "frames", n, "steps", s.Len())
	return nil
}

type ScriptValidator struct {
	out    io.Writer
	errors []string
}

func (v *ScriptValidator) validateFile(filename string) (*script.Script, error) {
	if v.out != nil {
		fmt.Fprintf(v.out, "Validating %s...\n", filename)
	}

	baseName := filepath.Base(filename)
	if !script.IsScriptFile(baseName) {
		return nil, fmt.Errorf("script file must have a .json, .yaml or .yml extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	if !isValidScriptFilename(nameWithoutExt) {
		return nil, fmt.Errorf("script filename '%s' must be lowercase snake_case (e.g., my_story.json, not my-story.json or MyStory.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	if err := script.ValidateSchema(data, baseName); err != nil {
		return nil, fmt.Errorf("file %s: %w", filename, err)
	}

	s, err := script.ParseStrict(data, baseName)
	if err != nil {
		return nil, fmt.Errorf("file %s failed strict unmarshaling: %w", filename, err)
	}

	v.validateScript(s)

	if len(v.errors) > 0 {
		return nil, fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return s, nil
}

func (v *ScriptValidator) validateScript(s *script.Script) {
	if s.Len() == 0 {
		v.addError("script has no steps")
	}

	for bgID := range s.Backgrounds {
		v.validateIDFormat("background ID", bgID)
	}

	titles := make(map[string]int)
	for i, step := range s.Steps {
		v.validateStep(s, i, step)

		if step.Chapter == "" {
			continue
		}
		if first, ok := titles[step.Chapter]; ok {
			v.addError(fmt.Sprintf("step %d repeats chapter title '%s' first used at step %d", i, step.Chapter, first))
			continue
		}
		titles[step.Chapter] = i
	}
}

func (v *ScriptValidator) validateStep(s *script.Script, i int, step script.Step) {
	if step.IsEmpty() {
		v.addError(fmt.Sprintf("step %d is empty", i))
		return
	}

	if step.BG != "" {
		if _, ok := s.BackgroundPath(step.BG); !ok {
			v.addError(fmt.Sprintf("step %d uses unknown background '%s'", i, step.BG))
		}
	}

	if step.IsNarration() {
		return
	}

	c, ok := s.Character(step.Speaker)
	if !ok {
		v.addError(fmt.Sprintf("step %d has unknown speaker '%s'", i, step.Speaker))
		return
	}
	if s.SideOf(step.Speaker) == script.SideNone {
		return
	}
	if _, ok := c.Sprite(step.EmotionOrDefault()); !ok {
		v.addError(fmt.Sprintf("step %d: speaker '%s' has no '%s' sprite", i, step.Speaker, step.EmotionOrDefault()))
	}
}

func (v *ScriptValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}

	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *ScriptValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var (
	validIDRegex       = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
	validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

func isValidScriptFilename(name string) bool {
	// Allow 'x.' prefix for experimental scripts
	name = strings.TrimPrefix(name, "x.")
	return validFilenameRegex.MatchString(name)
}
