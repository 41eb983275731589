package report

import (
	"fmt"

	"github.com/eugenenazirov/configvars/internal/settings"
)

// LocalSettingsCheckID identifies the missing local settings warning.
const LocalSettingsCheckID = "configvars.W001"

// Warning is a start-up diagnostic.
type Warning struct {
	ID  string
	Msg string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.ID, w.Msg)
}

type importReporter interface {
	ImportFailed() (string, bool)
}

// CheckLocalSettings returns one warning when the derived local settings
// module could not be found.
func CheckLocalSettings(engine importReporter) []Warning {
	module, failed := engine.ImportFailed()
	if !failed {
		return nil
	}

	path := settings.ModuleFile(module) + settings.Extensions[0]
	return []Warning{{
		ID: LocalSettingsCheckID,
		Msg: fmt.Sprintf("Local settings module is not defined nor default module exists.\n"+
			"Consider adding `%s` module to your project.\n"+
			"Finally add `%s` to your `.gitignore`.", module, path),
	}}
}
