package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"timetrack/config"
)

const defaultConfigName = ".timetrack.toml"

// configFile is the TOML file the config subcommands create, edit and delete.
type configFile struct {
	path string
}

// locateConfigFile picks --config, then the file viper loaded, then
// $HOME/.timetrack.toml.
func locateConfigFile(flagPath, loadedPath string) (configFile, error) {
	for _, candidate := range []string{flagPath, loadedPath} {
		if strings.TrimSpace(candidate) != "" {
			return configFile{path: candidate}, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return configFile{}, fmt.Errorf("resolve home directory: %w", err)
	}
	return configFile{path: filepath.Join(home, defaultConfigName)}, nil
}

// ensure writes the example template when the file does not exist yet and
// reports whether it did. Tokens may end up in the file, so it is private.
func (f configFile) ensure() (bool, error) {
	_, err := os.Stat(f.path)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("stat config %s: %w", f.path, err)
	}

	example, err := config.ExampleTOML()
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(example), 0o600); err != nil {
		return false, fmt.Errorf("write example config %s: %w", f.path, err)
	}
	return true, nil
}

func (f configFile) validate() (*config.Config, error) {
	content, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", f.path, err)
	}
	cfg, err := config.ValidateContent(content)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", f.path, err)
	}
	return cfg, nil
}

func (f configFile) remove() error {
	if err := os.Remove(f.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("no configuration file at %s", f.path)
		}
		return fmt.Errorf("delete config %s: %w", f.path, err)
	}
	return nil
}

// editorCommand builds the editor invocation from $VISUAL, then $EDITOR,
// then vi. Editor values may carry arguments, e.g. "code --wait".
func (f configFile) editorCommand(getenv func(string) string) (*exec.Cmd, error) {
	value := "vi"
	for _, key := range []string{"VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			value = v
			break
		}
	}

	fields := strings.Fields(value)
	if len(fields) == 0 {
		return nil, fmt.Errorf("editor command is empty")
	}
	return exec.Command(fields[0], append(fields[1:], f.path)...), nil
}

func runConfigCreate(out io.Writer, file configFile) error {
	created, err := file.ensure()
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "New config file created at: %s\n", file.path)
		return nil
	}
	fmt.Fprintf(out, "Config file already exists at: %s\n", file.path)
	return nil
}

// runConfigEdit opens file in the editor started by launch and validates the
// result once the editor exits.
func runConfigEdit(out io.Writer, file configFile, launch func(*exec.Cmd) error) error {
	created, err := file.ensure()
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "No config file found. Created example config at: %s\n", file.path)
	}

	editor, err := file.editorCommand(os.Getenv)
	if err != nil {
		return err
	}
	if err := launch(editor); err != nil {
		return fmt.Errorf("run editor: %w", err)
	}
	if _, err := file.validate(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Configuration saved and validated: %s\n", file.path)
	return nil
}

func runConfigDelete(out io.Writer, file configFile) error {
	if err := file.remove(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Configuration file deleted: %s\n", file.path)
	return nil
}

func attachTerminal(c *exec.Cmd) error {
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}
