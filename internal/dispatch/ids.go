package dispatch

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"time"

	"github.com/google/uuid"

	"sapsdispatch/internal/digest"
)

// jobNamespace scopes every job id this dispatcher derives.
var jobNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("sapsdispatch/job"))

// JobID derives the job identifier from every field of spec and the digests
// its tags resolved to. Identical specs map to the same id only while the tags
// keep pointing at the same images, so one job never mixes pipeline versions.
func JobID(spec JobSpec, digests digest.Set) string {
	var buf bytes.Buffer
	for _, coord := range spec.Coordinates {
		writeField(&buf, coord)
	}
	writeField(&buf, spec.Init.Format(time.DateOnly))
	writeField(&buf, spec.End.Format(time.DateOnly))
	writeField(&buf, spec.Tags.InputDownloading)
	writeField(&buf, spec.Tags.Preprocessing)
	writeField(&buf, spec.Tags.Processing)
	writeField(&buf, digests.InputDownloading.Digest)
	writeField(&buf, digests.Preprocessing.Digest)
	writeField(&buf, digests.Processing.Digest)
	writeField(&buf, strconv.Itoa(spec.Priority))
	writeField(&buf, spec.Owner)
	writeField(&buf, spec.Label)
	return uuid.NewSHA1(jobNamespace, buf.Bytes()).String()
}

// TaskID derives the id of the task for dataset on day in region, prefixed by
// jobID. Call it only for pairs that passed the availability check.
func TaskID(jobID, dataset string, day time.Time, region string) string {
	namespace, err := uuid.Parse(jobID)
	if err != nil {
		namespace = uuid.NewSHA1(jobNamespace, []byte(jobID))
	}
	var buf bytes.Buffer
	writeField(&buf, dataset)
	writeField(&buf, day.UTC().Format("20060102"))
	writeField(&buf, region)
	return jobID + ":" + uuid.NewSHA1(namespace, buf.Bytes()).String()
}

// writeField length-prefixes value so adjacent fields cannot run together.
func writeField(buf *bytes.Buffer, value string) {
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(len(value)))
	buf.Write(size[:])
	buf.WriteString(value)
}
