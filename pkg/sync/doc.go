/*
The sync package moves a portable application's files between the portable
root and their locations on the system.

Each configured mapping pairs a file under the portable root (the source) with
a system path (the destination). There are two directions:

 1. Merge copies portable files to the system before the application runs.
    System files that are overwritten are not backed up: they are expected to
    have been captured by the previous Save.
 2. Save copies system files back into the portable root after the
    application exits. The portable copy that's about to be replaced is first
    moved into Data/Files/PreviousData, so the previous generation can always
    be recovered.

Mappings are single files. Directories are never merged recursively. Every
mapping is processed independently: a failure is logged, recorded in the
phase's report, and the remaining mappings still run.
*/
package sync
