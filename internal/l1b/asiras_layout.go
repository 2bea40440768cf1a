package l1b

// ASIRAS L1b measurement dataset layout.
//
// Full binary format specification in PDF document:
//	REF: CS-LI-ESA-GS-0371
//	Issue: 2.6.1
//	Name: cryovex airborne data descriptions
//	Section: 3.2.4

const (
	// Header section byte lengths.
	asirasMPHBytes = 1247
	asirasSPHBytes = 1112
	asirasDSDBytes = 280

	// Per-block byte spans of the groups that are skipped, not decoded:
	// corrections group and average-waveform group.
	asirasCorrectionsBytes = 64
	asirasAvgWaveformBytes = 556

	// Each data set record (block) holds this many rows per group.
	asirasRowsPerBlock = 20

	// Header keys.
	asirasDSDCountKey  = "NUM_DSD"
	asirasNameKey      = "DS_NAME"
	asirasOffsetKey    = "DS_OFFSET"
	asirasBlocksKey    = "NUM_DSR"
	asirasNamePrefix   = "ASI"
	asirasEchoBins     = 256
	asirasBeamBehavLen = 50
)

func scalar(name string, disk DiskType, write string, scale float64) FieldSpec {
	return FieldSpec{Name: name, Disk: disk, WriteType: write, Scale: scale, Count: 1}
}

func array(name string, disk DiskType, write string, scale float64, count int) FieldSpec {
	return FieldSpec{Name: name, Disk: disk, WriteType: write, Scale: scale, Count: count}
}

func pad(n int) FieldSpec {
	return FieldSpec{Name: SkipField, Disk: TypePad, Scale: 1, Count: n}
}

// TimeOrbitGroup describes the time and orbit group of one ASIRAS row.
func TimeOrbitGroup() Group {
	return Group{Name: "time_orbit", Fields: []FieldSpec{
		scalar("days", TypeInt32, WriteInt, 1),
		scalar("seconds", TypeUint32, WriteInt, 1),
		scalar("microseconds", TypeUint32, WriteInt, 1),
		pad(8),
		scalar("instrument_config", TypeUint32, WriteInt, 1),
		scalar("burst_counter", TypeUint32, WriteInt, 1),
		scalar("latitude", TypeInt32, WriteFloat, 1e-7),
		scalar("longitude", TypeInt32, WriteFloat, 1e-7),
		scalar("altitude", TypeInt32, WriteFloat, 1e-3),
		scalar("altitude_rate", TypeInt32, WriteFloat, 1e-6),
		array("velocity_xyz", TypeInt32, WriteFloat, 1e-3, 3),
		array("beam_direction_xyz", TypeInt32, WriteFloat, 1e-6, 3),
		array("interferometer_baseline_xyz", TypeInt32, WriteFloat, 1e-6, 3),
		scalar("confidence_data", TypeUint32, WriteInt, 1),
	}}
}

// MeasurementGroup describes the measurements group of one ASIRAS row.
func MeasurementGroup() Group {
	return Group{Name: "measurement", Fields: []FieldSpec{
		scalar("window_delay", TypeInt64, WriteFloat, 1e-12),
		pad(4),
		scalar("ocog_width", TypeInt32, WriteFloat, 1e-2),
		scalar("retracker_range", TypeInt32, WriteFloat, 1e-3),
		scalar("surface_elvtn", TypeInt32, WriteFloat, 1e-3),
		scalar("agc_ch1", TypeInt32, WriteFloat, 1e-2),
		scalar("agc_ch2", TypeInt32, WriteFloat, 1e-2),
		scalar("tfg_ch1", TypeInt32, WriteFloat, 1e-2),
		scalar("tfg_ch2", TypeInt32, WriteFloat, 1e-2),
		scalar("transmit_power", TypeInt32, WriteFloat, 1e-6),
		scalar("doppler_range", TypeInt32, WriteFloat, 1e-3),
		scalar("instr_range_corr_ch1", TypeInt32, WriteFloat, 1e-3),
		scalar("instr_range_corr_ch2", TypeInt32, WriteFloat, 1e-3),
		pad(8),
		scalar("intern_phase_corr", TypeInt32, WriteFloat, 1e-6),
		scalar("extern_phase_corr", TypeInt32, WriteFloat, 1e-6),
		scalar("noise_power", TypeInt32, WriteFloat, 1e-2),
		scalar("roll", TypeInt16, WriteFloat, 1e-3),
		scalar("pitch", TypeInt16, WriteFloat, 1e-3),
		scalar("yaw", TypeInt16, WriteFloat, 1e-3),
		pad(2),
		scalar("heading", TypeInt32, WriteFloat, 1e-3),
		scalar("std_roll", TypeUint16, WriteFloat, 1e-4),
		scalar("std_pitch", TypeUint16, WriteFloat, 1e-4),
		scalar("std_yaw", TypeUint16, WriteFloat, 1e-4),
	}}
}

// MultilookedGroup describes the multilooked waveform group of one
// ASIRAS row, including the 256-bin power echo array.
func MultilookedGroup() Group {
	return Group{Name: "multilooked_waveform", Fields: []FieldSpec{
		array("ml_power_echo", TypeUint16, WriteInt, 1, asirasEchoBins),
		scalar("linear_scale_factor", TypeInt32, WriteInt, 1),
		scalar("power2_scale_factor", TypeInt32, WriteInt, 1),
		scalar("num_ml_power_echoes", TypeUint16, WriteInt, 1),
		scalar("flags", TypeUint16, WriteInt32, 1),
		array("beam_behaviour", TypeUint16, WriteInt, 1, asirasBeamBehavLen),
	}}
}
