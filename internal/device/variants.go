package device

// Class identifies a behavioural device family. Several models map to
// one class; the class selects command vocabulary and telemetry shape.
type Class string

const (
	ClassAirPurifierLegacy Class = "air_purifier_legacy"
	ClassAirPurifierBypass Class = "air_purifier_bypass"
	ClassAirPurifierVital  Class = "air_purifier_vital"
	ClassHumidifierClassic Class = "humidifier_classic"
	ClassHumidifierTower   Class = "humidifier_tower"
	ClassHumidifierWarm    Class = "humidifier_warm"
	ClassHumidifierOasis   Class = "humidifier_oasis"
	ClassOutletRound7A     Class = "outlet_round_7a"
	ClassOutletRound10A    Class = "outlet_round_10a"
	ClassOutletRound15A    Class = "outlet_round_15a"
	ClassOutletOutdoor     Class = "outlet_outdoor"
	ClassSwitchWall        Class = "switch_wall"
	ClassSwitchDimmer      Class = "switch_dimmer"
	ClassBulbDimmable      Class = "bulb_dimmable"
	ClassBulbTunable       Class = "bulb_tunable"
	ClassBulbMulticolor    Class = "bulb_multicolor"
	ClassBulbValceno       Class = "bulb_valceno"
)

// Protocol selects the wire flavour a variant speaks.
type Protocol int

const (
	// ProtocolBypassV2 devices share one endpoint; the command travels
	// in a nested payload object.
	ProtocolBypassV2 Protocol = iota

	// ProtocolLegacy devices each have a per-category path tree; the
	// command is encoded in the path and a flat body.
	ProtocolLegacy
)

// Variant is the immutable behaviour descriptor for one device family
// (or one model where ranges differ within a family). Tables built from
// variants are loaded once and never mutated at runtime.
type Variant struct {
	Class    Class
	Category Category
	Protocol Protocol

	// LegacyPath is the per-category path prefix for ProtocolLegacy.
	LegacyPath string

	// Modes is the fixed operating-mode enum. Empty means the hardware
	// has no mode concept (outlets, switches, bulbs).
	Modes []Mode

	// Features the hardware carries, independent of mode.
	Features []Feature

	// ModeRestricted maps a feature to the only modes it may be used in.
	// Features absent from the map are usable in every mode.
	ModeRestricted map[Feature][]Mode

	// Discrete argument ranges. Nil slices mean the corresponding
	// command is not applicable (also absent from Features).
	SpeedLevels []int
	MistLevels  []int
	WarmLevels  []int

	// HumidityRange is the inclusive target-humidity percentage range.
	HumidityRange [2]int

	// TimerMaxHours bounds SetTimer. Zero means no timer support.
	TimerMaxHours int
}

// SupportsMode reports whether mode is in the variant's enum.
func (v *Variant) SupportsMode(mode Mode) bool {
	for _, m := range v.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// entry binds one exact device-type string to a variant. The key also
// feeds the base-type fallback: the substring before the first hyphen
// is matched as a prefix of unrecognised device types.
type entry struct {
	key     string
	variant *Variant
}

// Fan variants. Speed ranges and feature cut-offs differ per model, so
// models within one class may carry distinct variant values.
var (
	purifier131 = &Variant{
		Class:      ClassAirPurifierLegacy,
		Category:   CategoryFans,
		Protocol:   ProtocolLegacy,
		LegacyPath: "/131airPurifier/v1/device",
		Modes:      []Mode{ModeAuto, ModeManual, ModeSleep},
		Features:   []Feature{FeatureFanSpeed, FeatureAirQuality, FeatureDisplay},
		ModeRestricted: map[Feature][]Mode{
			FeatureFanSpeed: {ModeManual},
		},
		SpeedLevels: []int{1, 2, 3},
	}

	core200S = &Variant{
		Class:    ClassAirPurifierBypass,
		Category: CategoryFans,
		Protocol: ProtocolBypassV2,
		Modes:    []Mode{ModeManual, ModeSleep},
		Features: []Feature{FeatureFanSpeed, FeatureResetFilter, FeatureDisplay, FeatureChildLock, FeatureTimer},
		ModeRestricted: map[Feature][]Mode{
			FeatureFanSpeed: {ModeManual},
		},
		SpeedLevels:   []int{1, 2, 3},
		TimerMaxHours: 24,
	}

	core300S = &Variant{
		Class:    ClassAirPurifierBypass,
		Category: CategoryFans,
		Protocol: ProtocolBypassV2,
		Modes:    []Mode{ModeAuto, ModeManual, ModeSleep},
		Features: []Feature{FeatureFanSpeed, FeatureAirQuality, FeatureResetFilter, FeatureDisplay, FeatureChildLock, FeatureTimer},
		ModeRestricted: map[Feature][]Mode{
			FeatureFanSpeed: {ModeManual},
		},
		SpeedLevels:   []int{1, 2, 3},
		TimerMaxHours: 24,
	}

	core400S = &Variant{
		Class:    ClassAirPurifierBypass,
		Category: CategoryFans,
		Protocol: ProtocolBypassV2,
		Modes:    []Mode{ModeAuto, ModeManual, ModeSleep},
		Features: []Feature{FeatureFanSpeed, FeatureAirQuality, FeatureDisplay, FeatureChildLock, FeatureTimer},
		ModeRestricted: map[Feature][]Mode{
			FeatureFanSpeed: {ModeManual},
		},
		SpeedLevels:   []int{1, 2, 3, 4},
		TimerMaxHours: 24,
	}

	core600S = &Variant{
		Class:    ClassAirPurifierBypass,
		Category: CategoryFans,
		Protocol: ProtocolBypassV2,
		Modes:    []Mode{ModeAuto, ModeManual, ModeSleep},
		Features: []Feature{FeatureFanSpeed, FeatureAirQuality, FeatureDisplay, FeatureChildLock, FeatureTimer},
		ModeRestricted: map[Feature][]Mode{
			FeatureFanSpeed: {ModeManual},
		},
		SpeedLevels:   []int{1, 2, 3, 4},
		TimerMaxHours: 24,
	}

	vital100S = &Variant{
		Class:    ClassAirPurifierVital,
		Category: CategoryFans,
		Protocol: ProtocolBypassV2,
		Modes:    []Mode{ModeAuto, ModeManual, ModeSleep},
		Features: []Feature{FeatureFanSpeed, FeatureAirQuality, FeatureLightDetection, FeatureAutoPreference, FeatureDisplay, FeatureChildLock, FeatureTimer},
		ModeRestricted: map[Feature][]Mode{
			FeatureFanSpeed: {ModeManual},
			FeatureDisplay:  {ModeAuto, ModeManual},
		},
		SpeedLevels:   []int{1, 2, 3, 4},
		TimerMaxHours: 24,
	}

	vital200S = &Variant{
		Class:    ClassAirPurifierVital,
		Category: CategoryFans,
		Protocol: ProtocolBypassV2,
		Modes:    []Mode{ModeAuto, ModeManual, ModeSleep, ModePet},
		Features: []Feature{FeatureFanSpeed, FeatureAirQuality, FeatureLightDetection, FeatureAutoPreference, FeatureDisplay, FeatureChildLock, FeatureTimer},
		ModeRestricted: map[Feature][]Mode{
			FeatureFanSpeed: {ModeManual},
			FeatureDisplay:  {ModeAuto, ModeManual, ModePet},
		},
		SpeedLevels:   []int{1, 2, 3, 4},
		TimerMaxHours: 24,
	}

	classic200S = &Variant{
		Class:         ClassHumidifierClassic,
		Category:      CategoryFans,
		Protocol:      ProtocolBypassV2,
		Modes:         []Mode{ModeAuto, ModeManual},
		Features:      []Feature{FeatureMist, FeatureHumidityTarget, FeatureDisplay},
		MistLevels:    []int{1, 2, 3, 4, 5, 6, 7, 8, 9},
		HumidityRange: [2]int{30, 80},
	}

	dual200S = &Variant{
		Class:         ClassHumidifierClassic,
		Category:      CategoryFans,
		Protocol:      ProtocolBypassV2,
		Modes:         []Mode{ModeAuto, ModeManual},
		Features:      []Feature{FeatureMist, FeatureHumidityTarget, FeatureDisplay},
		MistLevels:    []int{1, 2},
		HumidityRange: [2]int{30, 80},
	}

	classic300S = &Variant{
		Class:         ClassHumidifierTower,
		Category:      CategoryFans,
		Protocol:      ProtocolBypassV2,
		Modes:         []Mode{ModeAuto, ModeManual, ModeSleep},
		Features:      []Feature{FeatureMist, FeatureHumidityTarget, FeatureNightLight, FeatureDisplay},
		MistLevels:    []int{1, 2, 3, 4, 5, 6, 7, 8, 9},
		HumidityRange: [2]int{30, 80},
	}

	warm600S = &Variant{
		Class:    ClassHumidifierWarm,
		Category: CategoryFans,
		Protocol: ProtocolBypassV2,
		Modes:    []Mode{ModeAuto, ModeManual, ModeSleep},
		Features: []Feature{FeatureMist, FeatureWarmMist, FeatureHumidityTarget, FeatureDisplay},
		ModeRestricted: map[Feature][]Mode{
			FeatureHumidityTarget: {ModeAuto},
			FeatureDisplay:        {ModeAuto, ModeManual},
		},
		MistLevels:    []int{1, 2, 3, 4, 5, 6, 7, 8, 9},
		WarmLevels:    []int{0, 1, 2, 3},
		HumidityRange: [2]int{40, 80},
	}

	oasisMist = &Variant{
		Class:    ClassHumidifierOasis,
		Category: CategoryFans,
		Protocol: ProtocolBypassV2,
		Modes:    []Mode{ModeAuto, ModeManual, ModeSleep},
		Features: []Feature{FeatureMist, FeatureWarmMist, FeatureHumidityTarget, FeatureNightLight, FeatureDisplay},
		ModeRestricted: map[Feature][]Mode{
			FeatureHumidityTarget: {ModeAuto},
		},
		MistLevels:    []int{1, 2, 3, 4, 5, 6, 7, 8, 9},
		WarmLevels:    []int{0, 1, 2, 3},
		HumidityRange: [2]int{30, 80},
	}
)

// Outlet, switch and bulb variants.
var (
	outlet7A = &Variant{
		Class:      ClassOutletRound7A,
		Category:   CategoryOutlets,
		Protocol:   ProtocolLegacy,
		LegacyPath: "/v1/wifi-switch-1.3",
		Features:   []Feature{FeatureEnergyMonitor},
	}

	outlet10A = &Variant{
		Class:      ClassOutletRound10A,
		Category:   CategoryOutlets,
		Protocol:   ProtocolLegacy,
		LegacyPath: "/10a/v1/device",
		Features:   []Feature{FeatureEnergyMonitor},
	}

	outlet15A = &Variant{
		Class:      ClassOutletRound15A,
		Category:   CategoryOutlets,
		Protocol:   ProtocolLegacy,
		LegacyPath: "/15a/v1/device",
		Features:   []Feature{FeatureEnergyMonitor, FeatureNightLight},
	}

	outletOutdoor = &Variant{
		Class:      ClassOutletOutdoor,
		Category:   CategoryOutlets,
		Protocol:   ProtocolLegacy,
		LegacyPath: "/outdoorsocket15a/v1/device",
		Features:   []Feature{FeatureEnergyMonitor},
	}

	switchWall = &Variant{
		Class:      ClassSwitchWall,
		Category:   CategorySwitches,
		Protocol:   ProtocolLegacy,
		LegacyPath: "/inwallswitch/v1/device",
	}

	switchDimmer = &Variant{
		Class:      ClassSwitchDimmer,
		Category:   CategorySwitches,
		Protocol:   ProtocolLegacy,
		LegacyPath: "/dimmer/v1/device",
		Features:   []Feature{FeatureDimmable},
	}

	bulbDimmable = &Variant{
		Class:      ClassBulbDimmable,
		Category:   CategoryBulbs,
		Protocol:   ProtocolLegacy,
		LegacyPath: "/SmartBulb/v1/device",
		Features:   []Feature{FeatureDimmable},
	}

	bulbTunable = &Variant{
		Class:    ClassBulbTunable,
		Category: CategoryBulbs,
		Protocol: ProtocolBypassV2,
		Features: []Feature{FeatureDimmable, FeatureColorTemp},
	}

	bulbMulticolor = &Variant{
		Class:    ClassBulbMulticolor,
		Category: CategoryBulbs,
		Protocol: ProtocolBypassV2,
		Features: []Feature{FeatureDimmable, FeatureColor},
	}

	bulbValceno = &Variant{
		Class:    ClassBulbValceno,
		Category: CategoryBulbs,
		Protocol: ProtocolBypassV2,
		Features: []Feature{FeatureDimmable, FeatureColorTemp, FeatureColor},
	}
)

// Per-category variant tables. Scan order within a table is the
// declaration order; the registry relies on it being stable.
var fanTable = []entry{
	{"LV-PUR131S", purifier131},
	{"LV-RH131S", purifier131},
	{"Core200S", core200S},
	{"LAP-C201S-AUSR", core200S},
	{"LAP-C202S-WUSR", core200S},
	{"Core300S", core300S},
	{"LAP-C301S-WJP", core300S},
	{"LAP-C302S-WUSB", core300S},
	{"Core400S", core400S},
	{"LAP-C401S-WJP", core400S},
	{"LAP-C401S-WUSR", core400S},
	{"LAP-C401S-WAAA", core400S},
	{"Core600S", core600S},
	{"LAP-C601S-WUS", core600S},
	{"LAP-C601S-WUSR", core600S},
	{"LAP-C601S-WEU", core600S},
	{"LAP-V102S-AASR", vital100S},
	{"LAP-V102S-WUS", vital100S},
	{"LAP-V102S-WEU", vital100S},
	{"LAP-V201S-AASR", vital200S},
	{"LAP-V201S-WJP", vital200S},
	{"LAP-V201S-WEU", vital200S},
	{"LAP-V201S-WUS", vital200S},
	{"Classic200S", classic200S},
	{"Dual200S", dual200S},
	{"LUH-D301S-WUSR", dual200S},
	{"LUH-D301S-WJP", dual200S},
	{"LUH-D301S-WEU", dual200S},
	{"Classic300S", classic300S},
	{"LUH-A601S-WUSB", warm600S},
	{"LUH-A601S-WUS", warm600S},
	{"LUH-A602S-WUSR", warm600S},
	{"LUH-A602S-WUS", warm600S},
	{"LUH-A602S-WEUR", warm600S},
	{"LUH-A602S-WEU", warm600S},
	{"LUH-A602S-WJP", warm600S},
	{"LUH-O451S-WUS", oasisMist},
	{"LUH-O451S-WUSR", oasisMist},
	{"LUH-O451S-WEU", oasisMist},
}

var outletTable = []entry{
	{"wifi-switch-1.3", outlet7A},
	{"ESW03-USA", outlet10A},
	{"ESW01-EU", outlet10A},
	{"ESW15-USA", outlet15A},
	{"ESO15-TB", outletOutdoor},
}

// Longer ESL keys precede ESL100 so the base-type fallback does not
// swallow the tunable and multicolor models.
var bulbTable = []entry{
	{"ESL100CW", bulbTunable},
	{"ESL100MC", bulbMulticolor},
	{"ESL100", bulbDimmable},
	{"XYD0001", bulbValceno},
}

var switchTable = []entry{
	{"ESWL01", switchWall},
	{"ESWL03", switchWall},
	{"ESWD16", switchDimmer},
}

// categoryOrder fixes the cross-category scan order for exact matches.
var categoryOrder = []struct {
	category Category
	table    []entry
}{
	{CategoryFans, fanTable},
	{CategoryOutlets, outletTable},
	{CategoryBulbs, bulbTable},
	{CategorySwitches, switchTable},
}

// prefixRules maps device-type prefixes to categories, scanned in
// order. ESWL and ESWD must precede ESW or wall switches and dimmers
// would be classified as outlets.
var prefixRules = []struct {
	prefix   string
	category Category
}{
	{"Core", CategoryFans},
	{"LAP-", CategoryFans},
	{"LV-", CategoryFans},
	{"Classic", CategoryFans},
	{"Dual", CategoryFans},
	{"LUH-", CategoryFans},
	{"LEH-", CategoryFans},
	{"ESO", CategoryOutlets},
	{"ESWL", CategorySwitches},
	{"ESWD", CategorySwitches},
	{"ESW", CategoryOutlets},
	{"wifi-switch", CategoryOutlets},
	{"ESL", CategoryBulbs},
	{"XYD", CategoryBulbs},
}
