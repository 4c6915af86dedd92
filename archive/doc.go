// Package archive implements the room archival pipeline: fetch the recent
// message window for each configured Chatwork room, filter it against the
// room's durable watermark, normalize the message bodies, and append the
// result to the room's section of the destination document.
//
// The pipeline is append-only and at-least-once into the document: the
// watermark for a room advances only after its append is confirmed, so a
// failed cycle re-processes the same window on the next run instead of
// losing messages. Rooms are processed sequentially and independently; one
// room's failure never aborts the others.
package archive
