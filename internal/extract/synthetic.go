package extract

// syntheticPlaceholder is substituted when every real tier fails or yields
// unusably short text. It is clearly labeled so the provenance tag and the
// text itself both betray its origin, while still reading like report
// boilerplate so downstream prompts behave normally.
const syntheticPlaceholder = `[PLACEHOLDER DOCUMENT — original could not be read]

Interim Report

The company reports continued stable development during the period. Revenue
was in line with the comparable period last year and operating profit
reflects planned investments in product development and market expansion.

Management highlights a strengthened order book, continued demand in core
markets, and ongoing efficiency measures expected to support margins going
forward. Cash flow from operating activities remained positive and the
financial position is considered solid.

The board does not provide specific forward guidance for the coming period
but expects demand to remain stable. No significant events occurred after
the end of the reporting period.

This placeholder stands in for an uploaded document whose contents could not
be extracted. Figures, names, and statements are intentionally generic.`
