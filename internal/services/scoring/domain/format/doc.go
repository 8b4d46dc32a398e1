// Package format parses match format codes such as "SET3-S:6/TB7" into
// immutable descriptors, reconstructs canonical codes, and deduces a
// descriptor from an observed score line.
//
// Code grammar:
//
//	SET<bestOf>[X[A]]-S:<set>[-G:<n>C][-F:<set>]
//
//	<set> := <games>[NOAD][/TB<k>[@<at>][NOAD]]   standard set
//	       | TB<k>[NOAD]                         tiebreak-only set
//	       | T<minutes>P                         timed, point aggregate
//	       | T<minutes>                          timed, games counted
//
// X plays every set of the match; XA additionally decides the match on
// aggregate points. -G:<n>C makes games consecutive-count games won by a
// streak of n points. -F overrides the deciding set.
package format
