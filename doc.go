/*
Command gwmoc computes credible regions of gravitational wave sky
localizations and expresses them as MOCs, multi-order coverage maps.

Contents

  Program overview
  Command line usage
  File formats
  Algorithm outline


Program overview

Input is one or more probability sky maps of the same event, typically
from different localization pipelines.  For each map gwmoc finds the
credible regions at the requested probability levels, the smallest parts
of the sky holding that probability, and reports their areas.  With more
than one map it then reports, level by level, how the regions of each
pair of maps overlap.

Sample run, with a synthetic map and two map files:

  gwmoc -e S190425z -l .5,.9 -synth 250,-20,6 bayestar.txt lalinference.txt

Output shows, per map, the number of pixels, the peak pixel and its
position, then area, sky fraction, and number of MOC cells of each region.
The overlap table gives intersection and union areas and their ratio.

Regions can be saved three ways.  -o writes one MOC file per map and
level, -g writes one region archive per map, and -db records every region
in a SQLite catalog keyed by event, pipeline, and level.  The companion
command mocx compares two saved MOC files, regions from two archives, or
two regions of the catalog.  gwmoc -db <file> -list lists the catalog,
for one event if -e is given.  Recording a map in the catalog replaces the
regions stored earlier for the same event and pipeline.


Command line usage

  Usage: gwmoc [options] <mapfile>...   credible regions of probability maps
         gwmoc [options] -              credible regions of a map from stdin
         gwmoc [options] -synth ra,dec,sigma
                                        credible regions of a synthetic map
         gwmoc -db <sqlite-file> -list [-e <event>]
                                        list regions in a catalog
         gwmoc -h                       display help and quick reference
         gwmoc -v                       display version and copyright

  Options:
         -c <config-file>
         -l <levels>          comma separated, default 0.5,0.9
         -e <event>
         -f txt|json|bin      MOC file format, default txt
         -o <dir>             write a MOC file per map and level
         -g <dir>             write a region archive per map
         -db <sqlite-file>    record regions in a catalog
         -splitties

-synth generates a map at HEALPix order 6 from a single Gaussian blob
centered at ra, dec with width sigma, all in degrees, with a little
multiplicative noise.  It can be given with or without map files.

Options given on the command line override those of the config file.


File formats

Map files are text.  Blank lines and lines starting with # are ignored.
Other lines hold a NUNIQ cell number and a probability density per
steradian.  A NUNIQ number packs HEALPix order and NESTED index as
4*4^order + index.  Cells may be of mixed order but must not overlap.
Total probability must be within 0.001 of 1.

The config file, gwmoc.config in the current directory unless named with
-c, holds one keyword per line.  Lines starting with # are comments.

  levels <p> ...        probability levels, in (0, 1]
  event <name>          event name for output files and the catalog
  format txt|json|bin   MOC file format
  splitties             split groups of equal density cells, see below
  headings              print column headings (the default)
  noheadings

MOC files are written in IVOA MOC ASCII notation (.txt), as JSON (.json),
or in a compact binary form (.moc).  Region archives (.gmoc) hold a header
and the regions of one map as a gob stream.


Algorithm outline

Pixels are sorted by descending probability density, ties by ascending
NUNIQ number.  Cumulative probability is computed with compensated
summation and normalized by the map total.  The region at level p is the
shortest prefix of the sorted pixels with cumulative probability of at
least p, less a slack of 1e-12 for rounding.  Regions at increasing
levels are thus nested.

Pixels of exactly equal density are included all together or not at all,
so a uniform patch of sky is never split along pixel numbering.  The
splitties keyword or -splitties option includes them one at a time
instead, giving strictly smallest regions.

A region is returned as a MOC at the finest order of the map.  A MOC is
held as sorted, disjoint, non-adjacent ranges of cells at that order,
which makes union, intersection, and difference linear merges and makes
equal coverage compare equal.  Maps of different finest order are compared
at the finer order.

-------------
Public domain.
*/
package main
