package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Transfer is the internal (store-facing) shape: _id is a real ObjectID
// and pool_hashed_key_phrase is present so store queries can filter by
// it directly.
type Transfer struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	PoolHashedKeyPhrase string             `bson:"pool_hashed_key_phrase" json:"-"`
	From                string             `bson:"from" json:"from"`
	To                  string             `bson:"to" json:"to"`
	FilesID             []string           `bson:"files_id" json:"files_id"`
}

// TransferExt is the client-facing shape: string _id, no
// pool_hashed_key_phrase exposed to the wire (it is cleared by every
// store call before being handed back, via Transfer.Ext below).
type TransferExt struct {
	ID      string   `json:"_id"`
	From    string   `json:"from"`
	To      string   `json:"to"`
	FilesID []string `json:"files_id"`
}

// Ext converts the internal shape to the client-facing one, clearing the
// pool foreign key.
func (t Transfer) Ext() TransferExt {
	return TransferExt{
		ID:      t.ID.Hex(),
		From:    t.From,
		To:      t.To,
		FilesID: t.FilesID,
	}
}

// HasFile reports whether fileID is one of this transfer's blobs.
func (t Transfer) HasFile(fileID string) bool {
	for _, id := range t.FilesID {
		if id == fileID {
			return true
		}
	}
	return false
}

// FileInfo is the client-facing metadata for one stored blob, mirroring
// the GridFS file document shape the original db/models.rs FileInfo
// struct exposes (md5 intentionally omitted from JSON, as upstream).
type FileInfo struct {
	ID        string `bson:"_id" json:"_id"`
	Filename  string `bson:"filename" json:"filename"`
	Length    int64  `bson:"length" json:"length"`
	ChunkSize int32  `bson:"chunkSize" json:"chunkSize"`
	UploadDate int64 `bson:"uploadDate" json:"uploadDate"`
}
