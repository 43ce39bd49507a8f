package app

import (
	"github.com/specialistvlad/componentry/internal/kinds"
	"github.com/specialistvlad/componentry/modules/counter"
	"github.com/specialistvlad/componentry/modules/lifecyclelog"
	"github.com/specialistvlad/componentry/modules/mirror"
)

// coreModules is the definitive list of all component kinds that are
// compiled into the componentry binary.
var coreModules = []kinds.Module{
	&lifecyclelog.Module{},
	&mirror.Module{},
	&counter.Module{},
}
