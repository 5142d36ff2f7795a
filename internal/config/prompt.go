package config

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter asks for missing settings on an interactive terminal, one line
// per answer
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// AskCRC32 and AskZip control whether the yes/no questions are asked;
	// callers clear them when the value was given on the command line
	AskCRC32 bool
	AskZip   bool
}

// NewPrompter creates a prompter reading answers from in
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:       bufio.NewReader(in),
		out:      out,
		AskCRC32: true,
		AskZip:   true,
	}
}

// Fill prompts for every empty field of cfg
func (p *Prompter) Fill(cfg *Config) error {
	questions := []struct {
		field  *string
		prompt string
	}{
		{&cfg.RomDir, "Enter the root directory of your ROMs: "},
		{&cfg.OutputDir, "Enter the desired output directory for the playlist: "},
		{&cfg.OutputName, "Enter the desired output file name (without extension): "},
		{&cfg.Extension, "Enter the file extension to look for (e.g., .iso): "},
		{&cfg.DBName, "Enter the database name to use in the playlist: "},
	}

	for _, q := range questions {
		if *q.field != "" {
			continue
		}
		answer, err := p.ask(q.prompt)
		if err != nil {
			return err
		}
		*q.field = answer
	}

	if p.AskCRC32 {
		answer, err := p.ask("Do you want to calculate CRC32 checksums for the files? (yes/no): ")
		if err != nil {
			return err
		}
		cfg.UseCRC32 = isYes(answer)
	}
	if p.AskZip {
		answer, err := p.ask("Do you want to handle zip files? (yes/no): ")
		if err != nil {
			return err
		}
		cfg.HandleZip = isYes(answer)
	}
	return nil
}

func (p *Prompter) ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", fmt.Errorf("no answer for %q: input closed", strings.TrimSpace(prompt))
		}
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y":
		return true
	}
	return false
}
