package app

import (
	"github.com/vk/burstmd/internal/registry"
	"github.com/vk/burstmd/modules/console"
	"github.com/vk/burstmd/modules/date"
	"github.com/vk/burstmd/modules/env_vars"
	"github.com/vk/burstmd/modules/file"
	"github.com/vk/burstmd/modules/system"
	"github.com/vk/burstmd/modules/web"
)

// CoreModules is the definitive list of all modules that are compiled into
// the burstmd binary.
func CoreModules() []registry.Module {
	return []registry.Module{
		&system.Module{},
		&file.Module{},
		&date.Module{},
		&web.Module{},
		&env_vars.Module{},
		&console.Module{},
	}
}
