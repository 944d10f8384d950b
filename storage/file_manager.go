package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// FileManager persists the validated host list as a pretty-printed JSON
// array, fully replacing the previous file each run.
type FileManager struct {
	outputFile string
}

func NewFileManager(outputFile string) *FileManager {
	return &FileManager{outputFile: outputFile}
}

// SaveValidatedHosts writes hosts to the output file, creating missing parent
// directories first. The 2-space indent keeps diffs between runs minimal.
func (fm *FileManager) SaveValidatedHosts(hosts []string) error {
	dir := filepath.Dir(fm.outputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(hosts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal host list: %w", err)
	}

	if err := os.WriteFile(fm.outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write host list file: %w", err)
	}

	log.Infof("Saved %d validated hosts to %s", len(hosts), fm.outputFile)
	return nil
}

// LoadValidatedHosts reads the host list back from the output file.
func (fm *FileManager) LoadValidatedHosts() ([]string, error) {
	data, err := os.ReadFile(fm.outputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read host list file: %w", err)
	}

	var hosts []string
	if err := json.Unmarshal(data, &hosts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal host list: %w", err)
	}

	return hosts, nil
}
