// Package chorus implements a stereo multi-voice chorus.
//
// Each channel runs three integer-sample delay lines whose delay times are
// modulated by three independently phased LFOs, plus a feedback tap read
// from the channel's own output history at the base delay. The two channels
// of the stereo wrapper share nothing but the incoming parameter values;
// their LFO start phases are drawn from an explicit seed so left and right
// stay decorrelated while construction remains deterministic.
package chorus
