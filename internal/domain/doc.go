// Package domain models climate-risk snapshots for a single location and
// holds the rules that classify them.
//
// # Data Source
//
// Weather conditions, risk assessments, and alerts come from the climate data
// provider, one read per resource keyed by the location's display name. The
// provider reports raw numbers; everything user-facing (severity bands, the
// insight sentence, display times, recommended actions) is derived here and
// recomputed from scratch on every refresh.
//
// # Severity Bands
//
// Levels are scores on a 0-100 scale. A level maps to one of four bands
// using lower-bound-inclusive thresholds:
//
//	level >= 80  extreme
//	level >= 60  high
//	level >= 30  moderate
//	otherwise    low
//
// The same thresholds apply to the overall level and to each factor.
// Out-of-range levels are clamped to [0,100] before classification; NaN is
// treated as 0. Alert severities are supplied by the provider directly and
// never pass through these thresholds.
//
// # Insight
//
// [GenerateInsight] picks one of three sentences by overall level:
//
//	overall >= 70  fixed high-urgency message
//	overall >= 40  "<kind> is the primary concern for the next 48 hours..."
//	otherwise      fixed reassurance message
//
// In the middle band the named kind is the FIRST factor, in provider order,
// whose level is at least 60. It is not the factor with the highest level.
// When no factor qualifies the label "Climate risk" is used.
//
// # Hazard Kinds
//
// Factor and alert kinds are open strings. [LookupKind] maps the known ones
// (heat, storm, flood, wind, snow, fire) to a display category and icon by
// case-insensitive substring match, so "Heat Risk" resolves to heat. Anything
// else gets the generic alert icon.
//
// # Timestamps
//
// Alert timestamps are kept as the raw strings the provider sent and parsed
// only for display. An unparseable issue time renders as "Unknown time" and
// an unparseable expiry is omitted. See [FormatIssued] and [FormatExpiry].
package domain
