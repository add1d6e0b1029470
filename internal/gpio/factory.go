package gpio

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/smazurov/gridlight/internal/logging"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// Config selects and parameterises the output backend.
type Config struct {
	Backend   string // auto, cdev, sysfs or log
	Chip      string // character device chip, e.g. gpiochip0
	SysfsPath string // sysfs GPIO root, defaults to /sys/class/gpio
}

// New creates an Output for the configured backend. With "auto" the board
// model decides: a Raspberry Pi with a GPIO chip device gets the character
// device backend, a board with sysfs GPIO gets sysfs, anything else gets the
// logging stand-in. An explicit backend that is not usable here falls back to
// the stand-in so callers always receive a working Output.
func New(cfg Config, logger logging.Logger) Output {
	if cfg.Chip == "" {
		cfg.Chip = "gpiochip0"
	}
	if cfg.SysfsPath == "" {
		cfg.SysfsPath = sysfsGPIOPath
	}
	backend := strings.ToLower(cfg.Backend)
	if backend == "" {
		backend = BackendAuto
	}

	switch backend {
	case BackendCdev:
		if cdevAvailable(cfg.Chip) {
			logger.Info("Using GPIO character device", "chip", cfg.Chip)
			return newCdev(cfg.Chip)
		}
		logger.Warn("GPIO chip not available, using logging stand-in", "chip", cfg.Chip)
		return newStub(logger)

	case BackendSysfs:
		if sysfsAvailable(cfg.SysfsPath) {
			logger.Info("Using sysfs GPIO", "path", cfg.SysfsPath)
			return newSysfs(cfg.SysfsPath)
		}
		logger.Warn("sysfs GPIO not available, using logging stand-in", "path", cfg.SysfsPath)
		return newStub(logger)

	case BackendLog:
		logger.Info("Using logging GPIO stand-in")
		return newStub(logger)

	case BackendAuto:
		// handled below

	default:
		logger.Warn("Unknown GPIO backend, detecting", "backend", cfg.Backend)
	}

	boardModel := detectBoard()
	logger.Info("Detecting board for GPIO control", "board_model", boardModel)

	switch {
	case strings.Contains(boardModel, "Raspberry Pi") && cdevAvailable(cfg.Chip):
		logger.Info("Detected Raspberry Pi, using GPIO character device", "chip", cfg.Chip)
		return newCdev(cfg.Chip)

	case sysfsAvailable(cfg.SysfsPath):
		logger.Info("Using sysfs GPIO", "board_model", boardModel, "path", cfg.SysfsPath)
		return newSysfs(cfg.SysfsPath)

	default:
		logger.Info("No GPIO support detected, using logging stand-in", "board_model", boardModel)
		return newStub(logger)
	}
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	model := strings.TrimRight(string(data), "\x00")
	return model
}

// sysfsAvailable reports whether the sysfs export file exists.
func sysfsAvailable(basePath string) bool {
	_, err := os.Stat(filepath.Join(basePath, "export"))
	return err == nil
}
