// Package importer turns a loaded trace document into graph writes.
//
// An import runs in two passes. The first pass walks the whole document:
// it checks every element against the schema contract, registers entities,
// resolves cross-references (in the document first, then in the store) and
// builds a complete write plan. Only reads happen in this pass. The second
// pass commits the plan, correlates the run's external transactions with
// their stored counterparts and records the run in the import log.
//
// A StructuralError or ReferentialError from the first pass means nothing
// was written. A store failure during the second pass is returned as is;
// writes already issued stay, and rerunning the import completes them
// because every write is existence-gated.
package importer
