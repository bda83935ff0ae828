/*
Command mocx compares two sky coverage maps.

The maps are typically credible regions written by gwmoc -o, for example the
90% regions of the same event from two localization pipelines.  mocx reports
the area of each and the areas of their intersection, union, and differences,
and the fraction of each map covered by the other.

  Usage: mocx [options] <moc-a> <moc-b>
         mocx [options] -db <catalog> <event/pipeline/level> <event/pipeline/level>
    -db file: read regions from the SQLite catalog file
    -i file: write intersection to file
    -l level: region level to take from .gmoc archives (default 0.9)
    -u file: write union to file
    -v: display version and copyright

Maps may also be region archives written by gwmoc -g, with extension .gmoc.
The region at the -l level is compared.  With -db, both maps are instead
keys of regions recorded by gwmoc -db, for example S190425z/bayestar/0.9.

The file format is chosen by extension: .txt for IVOA MOC ASCII notation
such as "3/1-4 9 5/", .json for the JSON form {"3":[1,2,3,4,9],"5":[]},
and anything else for the binary form.  Output files for -i and -u are
written the same way.

Maps of different maximum order are compared at the finer order.  This is
lossless, a cell of a coarser map is expressed as its descendants.
*/
package main
