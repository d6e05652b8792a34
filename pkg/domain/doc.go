// Package domain contains the core types shared by the pipeline stages: the
// input domains, their perceptual fingerprints, the ordered fingerprint map
// that defines the clustering universe, and the clusters and run reports built
// from it. The types are free of network and storage concerns.
package domain
