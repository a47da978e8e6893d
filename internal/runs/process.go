package runs

import (
	"path"
	"path/filepath"
)

// StateRunning is the metadata state of a run whose process is still alive.
const StateRunning = "running"

// nameFlags are the training script arguments whose value names one
// experiment, and so tells its process apart from siblings of the same script.
var nameFlags = map[string]bool{
	"-exp": true, "--exp": true,
	"-experiment": true, "--experiment": true,
	"-name": true, "--name": true,
	"-clip": true, "--clip": true,
}

// ProcessPatterns returns regular expressions that match the command line of
// the process writing run, most specific first: the display name, then the
// values of naming flags, then "<script>.*<id>". ok is false when the run's
// metadata has no program.
func ProcessPatterns(run Run) (patterns []string, ok bool) {
	program, _ := run.Metadata["program"].(string)
	if program == "" {
		return nil, false
	}

	// short display names match too many unrelated command lines
	if run.DisplayName != "" && run.DisplayName != run.ID && len(run.DisplayName) > 5 {
		patterns = append(patterns, run.DisplayName)
	}

	args := stringList(run.Metadata["args"])
	for i := 0; i+1 < len(args); i++ {
		if nameFlags[args[i]] {
			patterns = append(patterns, args[i+1])
		}
	}

	script := path.Base(filepath.ToSlash(program))
	return append(patterns, script+".*"+run.ID), true
}
